package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/levijcl/Wei-sub002/internal/audit"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/domain/inventory"
	"github.com/levijcl/Wei-sub002/internal/domain/order"
	"github.com/levijcl/Wei-sub002/internal/domain/picking"
	"github.com/levijcl/Wei-sub002/internal/outbox"
)

// In-memory backends for tests and single-process local runs. Each call is
// atomic; cross-call atomicity is not needed because callers treat these
// through NopTxRunner.

type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]order.Order)}
}

func (r *MemoryOrderRepository) Save(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = *o
	return nil
}

func (r *MemoryOrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return &o, nil
}

func (r *MemoryOrderRepository) FindPreFulfillment(ctx context.Context) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*order.Order
	for _, o := range r.orders {
		if o.Status == order.StatusReserved {
			copied := o
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type MemoryPickingRepository struct {
	mu    sync.RWMutex
	tasks map[string]picking.Task
}

func NewMemoryPickingRepository() *MemoryPickingRepository {
	return &MemoryPickingRepository{tasks: make(map[string]picking.Task)}
}

func (r *MemoryPickingRepository) Save(ctx context.Context, t *picking.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = *t
	return nil
}

func (r *MemoryPickingRepository) FindByID(ctx context.Context, id string) (*picking.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, picking.ErrTaskNotFound
	}
	return &t, nil
}

func (r *MemoryPickingRepository) FindByOrderID(ctx context.Context, orderID string) ([]*picking.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*picking.Task
	for _, t := range r.tasks {
		if t.OrderID == orderID {
			copied := t
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *MemoryPickingRepository) FindAwaitingWes(ctx context.Context) ([]*picking.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*picking.Task
	for _, t := range r.tasks {
		if t.Status.CanUpdateFromWes() && t.WesTaskID != "" {
			copied := t
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type MemoryTransactionRepository struct {
	mu   sync.RWMutex
	txns map[string]inventory.Transaction
}

func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{txns: make(map[string]inventory.Transaction)}
}

func (r *MemoryTransactionRepository) Save(ctx context.Context, t *inventory.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns[t.ID] = *t
	return nil
}

func (r *MemoryTransactionRepository) FindByID(ctx context.Context, id string) (*inventory.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.txns[id]
	if !ok {
		return nil, inventory.ErrTransactionNotFound
	}
	return &t, nil
}

func (r *MemoryTransactionRepository) FindBySourceReference(ctx context.Context, sourceReferenceID string, txnType inventory.TransactionType) (*inventory.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *inventory.Transaction
	for _, t := range r.txns {
		if t.SourceReferenceID == sourceReferenceID && t.Type == txnType {
			if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
				copied := t
				latest = &copied
			}
		}
	}
	if latest == nil {
		return nil, inventory.ErrTransactionNotFound
	}
	return latest, nil
}

type MemoryAdjustmentRepository struct {
	mu          sync.RWMutex
	adjustments map[string]inventory.Adjustment
}

func NewMemoryAdjustmentRepository() *MemoryAdjustmentRepository {
	return &MemoryAdjustmentRepository{adjustments: make(map[string]inventory.Adjustment)}
}

func (r *MemoryAdjustmentRepository) Save(ctx context.Context, a *inventory.Adjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adjustments[a.ID] = *a
	return nil
}

func (r *MemoryAdjustmentRepository) FindByID(ctx context.Context, id string) (*inventory.Adjustment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adjustments[id]
	if !ok {
		return nil, inventory.ErrAdjustmentNotFound
	}
	return &a, nil
}

func (r *MemoryAdjustmentRepository) FindPending(ctx context.Context) ([]*inventory.Adjustment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*inventory.Adjustment
	for _, a := range r.adjustments {
		if a.Status == inventory.AdjStatusPending {
			copied := a
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type stockKey struct {
	sku         string
	warehouseID string
}

type MemoryStockRecordRepository struct {
	mu    sync.RWMutex
	stock map[stockKey]int
}

func NewMemoryStockRecordRepository() *MemoryStockRecordRepository {
	return &MemoryStockRecordRepository{stock: make(map[stockKey]int)}
}

func (r *MemoryStockRecordRepository) Get(ctx context.Context, sku, warehouseID string) (int, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	qty, ok := r.stock[stockKey{sku, warehouseID}]
	return qty, ok, nil
}

func (r *MemoryStockRecordRepository) Set(ctx context.Context, sku, warehouseID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stock[stockKey{sku, warehouseID}] = quantity
	return nil
}

func (r *MemoryStockRecordRepository) AdjustBy(ctx context.Context, sku, warehouseID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stock[stockKey{sku, warehouseID}] += delta
	return nil
}

type MemoryAuditStore struct {
	mu      sync.RWMutex
	records []audit.Record
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (s *MemoryAuditStore) SaveRecord(ctx context.Context, r *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *r)
	return nil
}

func (s *MemoryAuditStore) ListByAggregate(ctx context.Context, aggregateType, aggregateID string) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []audit.Record
	for _, r := range s.records {
		if r.AggregateType == aggregateType && r.AggregateID == aggregateID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *MemoryAuditStore) ListRecent(ctx context.Context, limit int) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.records)
	if limit > n {
		limit = n
	}
	result := make([]audit.Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, s.records[i])
	}
	return result, nil
}

type MemoryOutbox struct {
	mu   sync.Mutex
	rows []outbox.Row
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{}
}

func (o *MemoryOutbox) Enqueue(ctx context.Context, envs ...event.Envelope) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, env := range envs {
		o.rows = append(o.rows, outbox.Row{
			ID:        uuid.New().String(),
			Envelope:  env,
			Status:    outbox.StatusPending,
			CreatedAt: time.Now(),
		})
	}
	return nil
}

func (o *MemoryOutbox) FetchPending(ctx context.Context, limit int) ([]outbox.Row, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var result []outbox.Row
	for _, row := range o.rows {
		if row.Status == outbox.StatusPending {
			result = append(result, row)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (o *MemoryOutbox) MarkProcessed(ctx context.Context, id string) error {
	return o.update(id, func(row *outbox.Row) {
		now := time.Now()
		row.Status = outbox.StatusProcessed
		row.ProcessedAt = &now
	})
}

func (o *MemoryOutbox) MarkRetry(ctx context.Context, id string, lastError string) error {
	return o.update(id, func(row *outbox.Row) {
		row.Retries++
		row.LastError = lastError
	})
}

func (o *MemoryOutbox) MarkFailed(ctx context.Context, id string, lastError string) error {
	return o.update(id, func(row *outbox.Row) {
		now := time.Now()
		row.Status = outbox.StatusFailed
		row.Retries++
		row.LastError = lastError
		row.ProcessedAt = &now
	})
}

func (o *MemoryOutbox) update(id string, fn func(*outbox.Row)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.rows {
		if o.rows[i].ID == id {
			fn(&o.rows[i])
			return nil
		}
	}
	return outbox.ErrRowNotFound
}
