package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levijcl/Wei-sub002/internal/audit"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/domain/order"
	"github.com/levijcl/Wei-sub002/internal/domain/picking"
	"github.com/levijcl/Wei-sub002/internal/infrastructure/store"
)

type fixture struct {
	orders *store.MemoryOrderRepository
	tasks  *store.MemoryPickingRepository
	audits *store.MemoryAuditStore
	svc    *HistoryService
}

func newFixture() *fixture {
	f := &fixture{
		orders: store.NewMemoryOrderRepository(),
		tasks:  store.NewMemoryPickingRepository(),
		audits: store.NewMemoryAuditStore(),
	}
	f.svc = NewHistoryService(f.orders, f.tasks, f.audits)
	return f
}

func (f *fixture) seed(t *testing.T) (*order.Order, *picking.Task) {
	t.Helper()
	ctx := context.Background()

	o, err := order.New("order-1", []order.LineItem{{SKU: "SKU-A", Quantity: 2, Price: 100}}, event.ManualTrigger("tester"))
	require.NoError(t, err)
	o.DrainEvents()
	require.NoError(t, f.orders.Save(ctx, o))

	trigger := event.ManualTrigger("tester")
	task, err := picking.NewForOrder("order-1", []picking.TaskItem{{SKU: "SKU-A", Quantity: 2, Location: "W1"}}, 1, &trigger)
	require.NoError(t, err)
	task.DrainEvents()
	require.NoError(t, f.tasks.Save(ctx, task))

	for i, name := range []string{order.EventOrderCreated, order.EventOrderReserved} {
		require.NoError(t, f.audits.SaveRecord(ctx, &audit.Record{
			RecordID:       string(rune('a' + i)),
			AggregateType:  order.AggregateType,
			AggregateID:    "order-1",
			EventName:      name,
			EventTimestamp: time.Now(),
		}))
	}
	require.NoError(t, f.audits.SaveRecord(ctx, &audit.Record{
		RecordID:       "c",
		AggregateType:  picking.AggregateType,
		AggregateID:    task.ID,
		EventName:      picking.EventTaskCreated,
		EventTimestamp: time.Now(),
	}))
	return o, task
}

// ============================================
// History Service Tests
// ============================================

func TestHistoryService_GetOrder(t *testing.T) {
	f := newFixture()
	_, task := f.seed(t)

	view, err := f.svc.GetOrder(context.Background(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, "order-1", view.Order.ID)
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, task.ID, view.Tasks[0].ID)
	assert.Len(t, view.History, 2, "only the order's own trail is attached")
}

func TestHistoryService_GetOrder_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetOrder(context.Background(), "missing")

	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestHistoryService_GetTask(t *testing.T) {
	f := newFixture()
	_, task := f.seed(t)

	view, err := f.svc.GetTask(context.Background(), task.ID)

	require.NoError(t, err)
	assert.Equal(t, task.ID, view.Task.ID)
	require.Len(t, view.History, 1)
	assert.Equal(t, picking.EventTaskCreated, view.History[0].EventName)
}

func TestHistoryService_GetTask_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetTask(context.Background(), "missing")

	assert.ErrorIs(t, err, picking.ErrTaskNotFound)
}

func TestHistoryService_RecentActivity(t *testing.T) {
	f := newFixture()
	f.seed(t)

	records, err := f.svc.RecentActivity(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// Non-positive limits fall back to the default window.
	records, err = f.svc.RecentActivity(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestHistoryService_AggregateHistory(t *testing.T) {
	f := newFixture()
	f.seed(t)

	records, err := f.svc.AggregateHistory(context.Background(), order.AggregateType, "order-1")

	require.NoError(t, err)
	assert.Len(t, records, 2)
}
