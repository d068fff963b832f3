package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levijcl/Wei-sub002/internal/port"
	"github.com/levijcl/Wei-sub002/internal/port/mocks"
)

// In-package fakes keep these tests free of the store package, which
// itself depends on this one.

type fakeTxnRepo struct {
	txns []*Transaction
}

func (r *fakeTxnRepo) Save(ctx context.Context, t *Transaction) error {
	for i, existing := range r.txns {
		if existing.ID == t.ID {
			r.txns[i] = t
			return nil
		}
	}
	stored := *t
	r.txns = append(r.txns, &stored)
	return nil
}

func (r *fakeTxnRepo) FindByID(ctx context.Context, id string) (*Transaction, error) {
	for _, t := range r.txns {
		if t.ID == id {
			found := *t
			return &found, nil
		}
	}
	return nil, ErrTransactionNotFound
}

func (r *fakeTxnRepo) FindBySourceReference(ctx context.Context, ref string, txnType TransactionType) (*Transaction, error) {
	for i := len(r.txns) - 1; i >= 0; i-- {
		if r.txns[i].SourceReferenceID == ref && r.txns[i].Type == txnType {
			found := *r.txns[i]
			return &found, nil
		}
	}
	return nil, ErrTransactionNotFound
}

func (r *fakeTxnRepo) byType(txnType TransactionType) []*Transaction {
	var out []*Transaction
	for _, t := range r.txns {
		if t.Type == txnType {
			out = append(out, t)
		}
	}
	return out
}

type fakeAdjRepo struct {
	adjs map[string]*Adjustment
}

func newFakeAdjRepo() *fakeAdjRepo { return &fakeAdjRepo{adjs: make(map[string]*Adjustment)} }

func (r *fakeAdjRepo) Save(ctx context.Context, a *Adjustment) error {
	stored := *a
	r.adjs[a.ID] = &stored
	return nil
}

func (r *fakeAdjRepo) FindByID(ctx context.Context, id string) (*Adjustment, error) {
	a, ok := r.adjs[id]
	if !ok {
		return nil, ErrAdjustmentNotFound
	}
	found := *a
	return &found, nil
}

func (r *fakeAdjRepo) FindPending(ctx context.Context) ([]*Adjustment, error) {
	var out []*Adjustment
	for _, a := range r.adjs {
		if a.Status == AdjStatusPending {
			found := *a
			out = append(out, &found)
		}
	}
	return out, nil
}

type fakeStockRepo struct {
	records map[string]int
}

func newFakeStockRepo() *fakeStockRepo { return &fakeStockRepo{records: make(map[string]int)} }

func (r *fakeStockRepo) key(sku, warehouseID string) string { return sku + "@" + warehouseID }

func (r *fakeStockRepo) Get(ctx context.Context, sku, warehouseID string) (int, bool, error) {
	qty, ok := r.records[r.key(sku, warehouseID)]
	return qty, ok, nil
}

func (r *fakeStockRepo) Set(ctx context.Context, sku, warehouseID string, quantity int) error {
	r.records[r.key(sku, warehouseID)] = quantity
	return nil
}

func (r *fakeStockRepo) AdjustBy(ctx context.Context, sku, warehouseID string, delta int) error {
	r.records[r.key(sku, warehouseID)] += delta
	return nil
}

func newTestService() (*Service, *mocks.MockInventoryPort, *fakeTxnRepo, *fakeAdjRepo, *fakeStockRepo) {
	inv := mocks.NewMockInventoryPort()
	txns := &fakeTxnRepo{}
	adjs := newFakeAdjRepo()
	stock := newFakeStockRepo()
	return NewService(inv, txns, adjs, stock), inv, txns, adjs, stock
}

// ============================================
// Reserve Tests
// ============================================

func TestService_Reserve_Success(t *testing.T) {
	svc, inv, txns, _, _ := newTestService()
	ctx := context.Background()

	result, err := svc.Reserve(ctx, ReserveCommand{
		OrderID: "order-1", SKU: "SKU-A", WarehouseID: "W1", Quantity: 5, Source: "ORDER",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, inv.ReserveCalls, 1)
	assert.Equal(t, 5, inv.ReserveCalls[0].Quantity)

	reserves := txns.byType(TypeReserve)
	require.Len(t, reserves, 1)
	assert.Equal(t, TxnStatusSuccess, reserves[0].Status)
	assert.Equal(t, "order-1:SKU-A", reserves[0].SourceReferenceID)
	assert.Equal(t, "res-1", reserves[0].ExternalReservationID)
}

func TestService_Reserve_Insufficient_NotRetryable(t *testing.T) {
	svc, inv, txns, _, _ := newTestService()
	inv.ReserveErr = port.ErrInsufficientInventory
	ctx := context.Background()

	result, err := svc.Reserve(ctx, ReserveCommand{
		OrderID: "order-1", SKU: "SKU-A", WarehouseID: "W1", Quantity: 5,
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.False(t, result.Retryable)

	// The rejection is still recorded as a FAILED transaction.
	reserves := txns.byType(TypeReserve)
	require.Len(t, reserves, 1)
	assert.Equal(t, TxnStatusFailed, reserves[0].Status)
}

func TestService_Reserve_SystemError_Retryable(t *testing.T) {
	svc, inv, _, _, _ := newTestService()
	inv.ReserveErr = port.ErrInventorySystem
	ctx := context.Background()

	result, err := svc.Reserve(ctx, ReserveCommand{
		OrderID: "order-1", SKU: "SKU-A", WarehouseID: "W1", Quantity: 5,
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.Retryable)
}

func TestService_Reserve_Idempotent(t *testing.T) {
	svc, inv, _, _, _ := newTestService()
	ctx := context.Background()
	cmd := ReserveCommand{OrderID: "order-1", SKU: "SKU-A", WarehouseID: "W1", Quantity: 5}

	first, err := svc.Reserve(ctx, cmd)
	require.NoError(t, err)
	second, err := svc.Reserve(ctx, cmd)
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Len(t, inv.ReserveCalls, 1, "replay must not hit the port again")
}

func TestService_Reserve_FailedAttemptIsRetried(t *testing.T) {
	svc, inv, _, _, _ := newTestService()
	ctx := context.Background()
	cmd := ReserveCommand{OrderID: "order-1", SKU: "SKU-A", WarehouseID: "W1", Quantity: 5}

	inv.ReserveErr = port.ErrInventorySystem
	first, err := svc.Reserve(ctx, cmd)
	require.NoError(t, err)
	require.False(t, first.Success)

	// A FAILED transaction does not satisfy the idempotency check.
	inv.ReserveErr = nil
	second, err := svc.Reserve(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Len(t, inv.ReserveCalls, 2)
}

func TestService_Reserve_InvalidQuantity(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.Reserve(context.Background(), ReserveCommand{OrderID: "order-1", SKU: "SKU-A"})

	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

// ============================================
// Consume / Release Tests
// ============================================

func TestService_Consume_Success(t *testing.T) {
	svc, inv, txns, _, _ := newTestService()
	ctx := context.Background()

	result, err := svc.Consume(ctx, ConsumeCommand{
		TransactionID:         "txn-1",
		ExternalReservationID: "res-9",
		SourceReferenceID:     "consume:order-1:SKU-A",
		Source:                "PICKING_TASK",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"res-9"}, inv.ConsumeCalls)

	consumes := txns.byType(TypeConsume)
	require.Len(t, consumes, 1)
	assert.Equal(t, "txn-1", consumes[0].RelatedTransactionID)
}

func TestService_Consume_Idempotent_PortCalledOnce(t *testing.T) {
	svc, inv, _, _, _ := newTestService()
	ctx := context.Background()
	cmd := ConsumeCommand{
		ExternalReservationID: "res-9",
		SourceReferenceID:     "consume:order-1:SKU-A",
		Source:                "PICKING_TASK",
	}

	first, err := svc.Consume(ctx, cmd)
	require.NoError(t, err)
	second, err := svc.Consume(ctx, cmd)
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Len(t, inv.ConsumeCalls, 1)
}

func TestService_Consume_ReservationGone_NotRetryable(t *testing.T) {
	svc, inv, _, _, _ := newTestService()
	inv.ConsumeErr = port.ErrReservationNotFound
	ctx := context.Background()

	result, err := svc.Consume(ctx, ConsumeCommand{
		ExternalReservationID: "res-9",
		SourceReferenceID:     "consume:order-1:SKU-A",
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.False(t, result.Retryable)
}

func TestService_Release_Success(t *testing.T) {
	svc, inv, txns, _, _ := newTestService()
	ctx := context.Background()

	result, err := svc.Release(ctx, ReleaseCommand{
		ExternalReservationID: "res-9",
		SourceReferenceID:     "release:order-1:SKU-A",
		Source:                "PICKING_TASK",
		Reason:                "task canceled",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"res-9"}, inv.ReleaseCalls)
	require.Len(t, txns.byType(TypeRelease), 1)
}

func TestService_Release_Idempotent(t *testing.T) {
	svc, inv, _, _, _ := newTestService()
	ctx := context.Background()
	cmd := ReleaseCommand{
		ExternalReservationID: "res-9",
		SourceReferenceID:     "release:order-1:SKU-A",
	}

	_, err := svc.Release(ctx, cmd)
	require.NoError(t, err)
	_, err = svc.Release(ctx, cmd)
	require.NoError(t, err)

	assert.Len(t, inv.ReleaseCalls, 1)
}

func TestService_FindReservation(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Reserve(ctx, ReserveCommand{OrderID: "order-1", SKU: "SKU-A", WarehouseID: "W1", Quantity: 3})
	require.NoError(t, err)

	res, err := svc.FindReservation(ctx, "order-1", "SKU-A")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "res-1", res.ExternalReservationID)

	missing, err := svc.FindReservation(ctx, "order-1", "SKU-X")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// ============================================
// Discrepancy Detection Tests
// ============================================

func snapshot(sku string, qty int) port.StockSnapshot {
	return port.StockSnapshot{SKU: sku, WarehouseID: "W1", Quantity: qty, ObservedAt: time.Now()}
}

func TestService_DetectDiscrepancies_NoMismatch(t *testing.T) {
	svc, _, _, _, stock := newTestService()
	ctx := context.Background()
	require.NoError(t, stock.Set(ctx, "SKU-A", "W1", 10))

	adjustmentID, err := svc.DetectDiscrepancies(ctx, []port.StockSnapshot{snapshot("SKU-A", 10)})

	require.NoError(t, err)
	assert.Empty(t, adjustmentID)
}

func TestService_DetectDiscrepancies_Mismatch(t *testing.T) {
	svc, _, _, adjs, stock := newTestService()
	ctx := context.Background()
	require.NoError(t, stock.Set(ctx, "SKU-A", "W1", 10))

	adjustmentID, err := svc.DetectDiscrepancies(ctx, []port.StockSnapshot{snapshot("SKU-A", 7)})

	require.NoError(t, err)
	require.NotEmpty(t, adjustmentID)

	adj, err := adjs.FindByID(ctx, adjustmentID)
	require.NoError(t, err)
	assert.Equal(t, AdjStatusPending, adj.Status)
	require.Len(t, adj.Logs, 1)
	assert.Equal(t, 10, adj.Logs[0].ExpectedQuantity)
	assert.Equal(t, 7, adj.Logs[0].ActualQuantity)
	assert.Equal(t, -3, adj.Logs[0].Difference)
}

func TestService_DetectDiscrepancies_WithinTolerance(t *testing.T) {
	svc, _, _, _, stock := newTestService()
	svc.SetTolerance(3)
	ctx := context.Background()
	require.NoError(t, stock.Set(ctx, "SKU-A", "W1", 10))

	adjustmentID, err := svc.DetectDiscrepancies(ctx, []port.StockSnapshot{snapshot("SKU-A", 7)})

	require.NoError(t, err)
	assert.Empty(t, adjustmentID)
}

func TestService_DetectDiscrepancies_UnknownSKUAdoptsBaseline(t *testing.T) {
	svc, _, _, _, stock := newTestService()
	ctx := context.Background()

	adjustmentID, err := svc.DetectDiscrepancies(ctx, []port.StockSnapshot{snapshot("SKU-NEW", 42)})

	require.NoError(t, err)
	assert.Empty(t, adjustmentID)
	qty, found, err := stock.Get(ctx, "SKU-NEW", "W1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, qty)
}

func TestService_DetectDiscrepancies_BatchesIntoOneAdjustment(t *testing.T) {
	svc, _, _, adjs, stock := newTestService()
	ctx := context.Background()
	require.NoError(t, stock.Set(ctx, "SKU-A", "W1", 10))
	require.NoError(t, stock.Set(ctx, "SKU-B", "W1", 5))

	adjustmentID, err := svc.DetectDiscrepancies(ctx, []port.StockSnapshot{
		snapshot("SKU-A", 8),
		snapshot("SKU-B", 6),
	})

	require.NoError(t, err)
	adj, err := adjs.FindByID(ctx, adjustmentID)
	require.NoError(t, err)
	assert.Len(t, adj.Logs, 2)
}

// ============================================
// Adjustment Application Tests
// ============================================

func TestService_ApplyAdjustment_Success(t *testing.T) {
	svc, inv, txns, adjs, stock := newTestService()
	ctx := context.Background()
	require.NoError(t, stock.Set(ctx, "SKU-A", "W1", 10))
	adjustmentID, err := svc.DetectDiscrepancies(ctx, []port.StockSnapshot{snapshot("SKU-A", 7)})
	require.NoError(t, err)

	result, err := svc.ApplyAdjustment(ctx, adjustmentID)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"SKU-A@W1-3"}, inv.AdjustCalls)

	adj, err := adjs.FindByID(ctx, adjustmentID)
	require.NoError(t, err)
	assert.Equal(t, AdjStatusApplied, adj.Status)
	assert.Equal(t, result.TransactionID, adj.AppliedTransactionID)

	// Recorded quantity converges on the observed one.
	qty, _, err := stock.Get(ctx, "SKU-A", "W1")
	require.NoError(t, err)
	assert.Equal(t, 7, qty)

	require.Len(t, txns.byType(TypeAdjust), 1)
}

func TestService_ApplyAdjustment_PortFailure(t *testing.T) {
	svc, inv, _, adjs, stock := newTestService()
	ctx := context.Background()
	require.NoError(t, stock.Set(ctx, "SKU-A", "W1", 10))
	adjustmentID, err := svc.DetectDiscrepancies(ctx, []port.StockSnapshot{snapshot("SKU-A", 7)})
	require.NoError(t, err)

	inv.AdjustErr = port.ErrInventorySystem
	result, err := svc.ApplyAdjustment(ctx, adjustmentID)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.Retryable)

	adj, err := adjs.FindByID(ctx, adjustmentID)
	require.NoError(t, err)
	assert.Equal(t, AdjStatusFailed, adj.Status)
}

func TestService_ApplyAdjustment_AlreadySettled(t *testing.T) {
	svc, inv, _, _, stock := newTestService()
	ctx := context.Background()
	require.NoError(t, stock.Set(ctx, "SKU-A", "W1", 10))
	adjustmentID, err := svc.DetectDiscrepancies(ctx, []port.StockSnapshot{snapshot("SKU-A", 7)})
	require.NoError(t, err)

	first, err := svc.ApplyAdjustment(ctx, adjustmentID)
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.ApplyAdjustment(ctx, adjustmentID)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Len(t, inv.AdjustCalls, 1, "settled adjustment must not be re-applied")
}

// ============================================
// Increase Tests
// ============================================

func TestService_Increase_Success(t *testing.T) {
	svc, inv, _, _, stock := newTestService()
	ctx := context.Background()

	result, err := svc.Increase(ctx, "SKU-A", "W1", 20, "restock")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"SKU-A@W1+20"}, inv.IncreaseCalls)
	qty, _, err := stock.Get(ctx, "SKU-A", "W1")
	require.NoError(t, err)
	assert.Equal(t, 20, qty)
}

func TestService_Increase_InvalidQuantity(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.Increase(context.Background(), "SKU-A", "W1", 0, "restock")

	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
