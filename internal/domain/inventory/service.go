package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/levijcl/Wei-sub002/internal/port"
)

// OperationResult is the explicit outcome of a command-level inventory
// operation. Business failures surface here instead of as raw errors, so
// callers can branch without exception-style control flow.
type OperationResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	AdjustmentID  string `json:"adjustment_id,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	// Retryable marks transient infrastructure failures that are safe to
	// retry at the redelivery layer; business rejections never are.
	Retryable bool `json:"retryable,omitempty"`
}

func successResult(transactionID string) OperationResult {
	return OperationResult{Success: true, TransactionID: transactionID}
}

func failureResult(transactionID, reason string, retryable bool) OperationResult {
	return OperationResult{TransactionID: transactionID, FailureReason: reason, Retryable: retryable}
}

type ReserveCommand struct {
	OrderID     string
	SKU         string
	WarehouseID string
	Quantity    int
	Source      string
}

type ConsumeCommand struct {
	TransactionID         string
	ExternalReservationID string
	SourceReferenceID     string
	Source                string
}

type ReleaseCommand struct {
	TransactionID         string
	ExternalReservationID string
	SourceReferenceID     string
	Source                string
	Reason                string
}

// Service orchestrates reserve/consume/release against the inventory port
// and the discrepancy-detection and adjustment-apply flow. Every mutating
// command is recorded as a Transaction keyed by its source reference, which
// makes replays under at-least-once delivery detectable.
type Service struct {
	inventory    port.InventoryPort
	transactions TransactionRepository
	adjustments  AdjustmentRepository
	stock        StockRecordRepository

	// tolerance is the absolute unit-count difference below which an
	// observed quantity is not a discrepancy. Zero means exact match.
	tolerance int
}

func NewService(inv port.InventoryPort, txns TransactionRepository, adjs AdjustmentRepository, stock StockRecordRepository) *Service {
	return &Service{
		inventory:    inv,
		transactions: txns,
		adjustments:  adjs,
		stock:        stock,
	}
}

// SetTolerance overrides the discrepancy tolerance (absolute units).
func (s *Service) SetTolerance(units int) { s.tolerance = units }

// Reserve creates a reservation against the inventory service and records
// the transaction. Insufficient stock is a definitive business rejection.
func (s *Service) Reserve(ctx context.Context, cmd ReserveCommand) (OperationResult, error) {
	if cmd.Quantity <= 0 {
		return OperationResult{}, fmt.Errorf("%w: sku %s", ErrInvalidQuantity, cmd.SKU)
	}

	if existing, err := s.findSettled(ctx, cmd.OrderID+":"+cmd.SKU, TypeReserve); err != nil {
		return OperationResult{}, err
	} else if existing != nil {
		return successResult(existing.ID), nil
	}

	txn := NewTransaction(TypeReserve, cmd.Source, cmd.OrderID+":"+cmd.SKU, cmd.WarehouseID,
		[]TransactionLine{{SKU: cmd.SKU, Quantity: cmd.Quantity}})

	reservationID, err := s.inventory.CreateReservation(ctx, cmd.SKU, cmd.WarehouseID, cmd.OrderID, cmd.Quantity)
	if err != nil {
		txn.Fail(err.Error())
	} else {
		txn.Succeed(reservationID)
	}

	if saveErr := s.transactions.Save(ctx, txn); saveErr != nil {
		return OperationResult{}, saveErr
	}

	switch {
	case err == nil:
		return successResult(txn.ID), nil
	case errors.Is(err, port.ErrInsufficientInventory):
		return failureResult(txn.ID, err.Error(), false), nil
	default:
		return failureResult(txn.ID, err.Error(), true), nil
	}
}

// Consume consumes a reservation. Idempotent by SourceReferenceID: if an
// equivalent consume already succeeded, the port is not called again.
func (s *Service) Consume(ctx context.Context, cmd ConsumeCommand) (OperationResult, error) {
	if existing, err := s.findSettled(ctx, cmd.SourceReferenceID, TypeConsume); err != nil {
		return OperationResult{}, err
	} else if existing != nil {
		return successResult(existing.ID), nil
	}

	txn := NewTransaction(TypeConsume, cmd.Source, cmd.SourceReferenceID, "", nil)
	txn.ExternalReservationID = cmd.ExternalReservationID
	txn.RelatedTransactionID = cmd.TransactionID

	err := s.inventory.ConsumeReservation(ctx, cmd.ExternalReservationID)
	switch {
	case err == nil:
		txn.Succeed("")
	case errors.Is(err, port.ErrReservationNotFound):
		// Data-consistency break: the reservation is gone either way.
		log.Printf("[InventorySaga] consume %s: reservation %s not found", cmd.SourceReferenceID, cmd.ExternalReservationID)
		txn.Fail(err.Error())
	default:
		txn.Fail(err.Error())
	}

	if saveErr := s.transactions.Save(ctx, txn); saveErr != nil {
		return OperationResult{}, saveErr
	}

	switch {
	case err == nil:
		return successResult(txn.ID), nil
	case errors.Is(err, port.ErrReservationNotFound):
		return failureResult(txn.ID, err.Error(), false), nil
	default:
		return failureResult(txn.ID, err.Error(), true), nil
	}
}

// Release releases a reservation, used when fulfillment is canceled after
// a successful reserve. Same idempotency pattern as Consume.
func (s *Service) Release(ctx context.Context, cmd ReleaseCommand) (OperationResult, error) {
	if existing, err := s.findSettled(ctx, cmd.SourceReferenceID, TypeRelease); err != nil {
		return OperationResult{}, err
	} else if existing != nil {
		return successResult(existing.ID), nil
	}

	txn := NewTransaction(TypeRelease, cmd.Source, cmd.SourceReferenceID, "", nil)
	txn.ExternalReservationID = cmd.ExternalReservationID
	txn.RelatedTransactionID = cmd.TransactionID

	err := s.inventory.ReleaseReservation(ctx, cmd.ExternalReservationID)
	switch {
	case err == nil:
		txn.Succeed("")
	case errors.Is(err, port.ErrReservationNotFound):
		log.Printf("[InventorySaga] release %s: reservation %s not found (%s)", cmd.SourceReferenceID, cmd.ExternalReservationID, cmd.Reason)
		txn.Fail(err.Error())
	default:
		txn.Fail(err.Error())
	}

	if saveErr := s.transactions.Save(ctx, txn); saveErr != nil {
		return OperationResult{}, saveErr
	}

	switch {
	case err == nil:
		return successResult(txn.ID), nil
	case errors.Is(err, port.ErrReservationNotFound):
		return failureResult(txn.ID, err.Error(), false), nil
	default:
		return failureResult(txn.ID, err.Error(), true), nil
	}
}

// FindReservation returns the successful RESERVE transaction recorded for
// an order line, if any.
func (s *Service) FindReservation(ctx context.Context, orderID, sku string) (*Transaction, error) {
	return s.findSettled(ctx, orderID+":"+sku, TypeReserve)
}

// findSettled returns a prior successful transaction for the idempotency
// key, or nil when none exists.
func (s *Service) findSettled(ctx context.Context, sourceReferenceID string, txnType TransactionType) (*Transaction, error) {
	existing, err := s.transactions.FindBySourceReference(ctx, sourceReferenceID, txnType)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if existing != nil && existing.Status == TxnStatusSuccess {
		return existing, nil
	}
	return nil, nil
}

// DetectDiscrepancies compares a snapshot batch against recorded
// quantities. Mismatches beyond tolerance become DiscrepancyLogs on one
// new PENDING adjustment; a batch with no mismatches creates nothing and
// returns an empty id, which is not an error.
func (s *Service) DetectDiscrepancies(ctx context.Context, snapshots []port.StockSnapshot) (string, error) {
	var logs []DiscrepancyLog
	for _, snap := range snapshots {
		recorded, found, err := s.stock.Get(ctx, snap.SKU, snap.WarehouseID)
		if err != nil {
			return "", err
		}
		if !found {
			// First sighting of this SKU/warehouse pair: adopt the
			// observed quantity as the baseline rather than flagging it.
			if err := s.stock.Set(ctx, snap.SKU, snap.WarehouseID, snap.Quantity); err != nil {
				return "", err
			}
			continue
		}

		diff := snap.Quantity - recorded
		if abs(diff) <= s.tolerance {
			continue
		}
		logs = append(logs, DiscrepancyLog{
			SKU:              snap.SKU,
			WarehouseID:      snap.WarehouseID,
			ExpectedQuantity: recorded,
			ActualQuantity:   snap.Quantity,
			Difference:       diff,
			DetectedAt:       snap.ObservedAt,
		})
	}

	if len(logs) == 0 {
		return "", nil
	}

	adj := NewAdjustment(logs)
	if err := s.adjustments.Save(ctx, adj); err != nil {
		return "", err
	}
	log.Printf("[InventorySaga] detected %d discrepancies, adjustment %s pending", len(logs), adj.ID)
	return adj.ID, nil
}

// ApplyAdjustment replays each discrepancy as an AdjustInventory call. Any
// line failure marks the whole adjustment FAILED; application is
// all-or-nothing at the adjustment granularity.
func (s *Service) ApplyAdjustment(ctx context.Context, adjustmentID string) (OperationResult, error) {
	adj, err := s.adjustments.FindByID(ctx, adjustmentID)
	if err != nil {
		return OperationResult{}, err
	}
	if adj.Status != AdjStatusPending {
		return OperationResult{AdjustmentID: adj.ID, Success: adj.Status == AdjStatusApplied,
			FailureReason: adj.FailureReason}, nil
	}

	var lines []TransactionLine
	for _, dlog := range adj.Logs {
		if err := s.inventory.AdjustInventory(ctx, dlog.SKU, dlog.WarehouseID, dlog.Difference,
			fmt.Sprintf("discrepancy adjustment %s", adj.ID)); err != nil {
			reason := fmt.Sprintf("adjust %s@%s by %d: %v", dlog.SKU, dlog.WarehouseID, dlog.Difference, err)
			if markErr := adj.MarkFailed(reason); markErr != nil {
				return OperationResult{}, markErr
			}
			if saveErr := s.adjustments.Save(ctx, adj); saveErr != nil {
				return OperationResult{}, saveErr
			}
			return OperationResult{AdjustmentID: adj.ID, FailureReason: reason, Retryable: !errors.Is(err, port.ErrInsufficientInventory)}, nil
		}
		lines = append(lines, TransactionLine{SKU: dlog.SKU, Quantity: dlog.Difference})
	}

	txn := NewTransaction(TypeAdjust, "ADJUSTMENT", adj.ID, "", lines)
	txn.Succeed("")
	if err := s.transactions.Save(ctx, txn); err != nil {
		return OperationResult{}, err
	}

	if err := adj.MarkApplied(txn.ID); err != nil {
		return OperationResult{}, err
	}
	if err := s.adjustments.Save(ctx, adj); err != nil {
		return OperationResult{}, err
	}

	// Bring recorded quantities in line with what was observed.
	for _, dlog := range adj.Logs {
		if err := s.stock.Set(ctx, dlog.SKU, dlog.WarehouseID, dlog.ActualQuantity); err != nil {
			log.Printf("[InventorySaga] failed to update stock record %s@%s: %v", dlog.SKU, dlog.WarehouseID, err)
		}
	}

	return OperationResult{Success: true, AdjustmentID: adj.ID, TransactionID: txn.ID}, nil
}

// Increase records externally sourced stock arriving at a warehouse.
func (s *Service) Increase(ctx context.Context, sku, warehouseID string, quantity int, reason string) (OperationResult, error) {
	if quantity <= 0 {
		return OperationResult{}, fmt.Errorf("%w: sku %s", ErrInvalidQuantity, sku)
	}

	txn := NewTransaction(TypeIncrease, "MANUAL", fmt.Sprintf("increase:%s:%s", sku, warehouseID), warehouseID,
		[]TransactionLine{{SKU: sku, Quantity: quantity}})

	err := s.inventory.IncreaseInventory(ctx, sku, warehouseID, quantity, reason)
	if err != nil {
		txn.Fail(err.Error())
	} else {
		txn.Succeed("")
	}
	if saveErr := s.transactions.Save(ctx, txn); saveErr != nil {
		return OperationResult{}, saveErr
	}
	if err != nil {
		return failureResult(txn.ID, err.Error(), true), nil
	}

	if err := s.stock.AdjustBy(ctx, sku, warehouseID, quantity); err != nil {
		log.Printf("[InventorySaga] failed to update stock record %s@%s: %v", sku, warehouseID, err)
	}
	return successResult(txn.ID), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
