package observer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/levijcl/Wei-sub002/internal/command"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/domain/order"
	"github.com/levijcl/Wei-sub002/internal/outbox"
	"github.com/levijcl/Wei-sub002/internal/port"
)

// OrderSourceObserver pulls new orders from an external order source and
// feeds them through intake. An order is acknowledged upstream only after
// it has been persisted locally, so a crash between the two at worst
// re-delivers an order that intake then rejects as a duplicate.
type OrderSourceObserver struct {
	source   port.OrderSourcePort
	endpoint string
	commands *command.Handler
	outbox   outbox.Repository

	mu     sync.Mutex
	cursor time.Time
}

func NewOrderSourceObserver(source port.OrderSourcePort, endpoint string, commands *command.Handler, ob outbox.Repository) *OrderSourceObserver {
	return &OrderSourceObserver{source: source, endpoint: endpoint, commands: commands, outbox: ob}
}

func (o *OrderSourceObserver) Name() string { return "order-source-observer" }

func (o *OrderSourceObserver) Poll(ctx context.Context) error {
	o.mu.Lock()
	since := o.cursor
	o.mu.Unlock()

	observed, err := o.source.FetchNewOrders(ctx, o.endpoint, since)
	if err != nil {
		return err
	}
	for _, obs := range observed {
		if err := o.intake(ctx, obs); err != nil {
			log.Printf("[OrderSourceObserver] intake of order %s failed: %v", obs.OrderID, err)
			continue
		}
		o.advanceCursor(obs.ObservedAt)
	}
	return nil
}

func (o *OrderSourceObserver) intake(ctx context.Context, obs port.ObservationResult) error {
	items := make([]order.LineItem, 0, len(obs.Lines))
	for _, l := range obs.Lines {
		items = append(items, order.LineItem{SKU: l.SKU, Quantity: l.Quantity, Price: l.Price})
	}
	trigger := event.ObserverTrigger(o.Name())
	result, err := o.commands.CreateOrder(ctx, command.CreateOrder{
		OrderID:             obs.OrderID,
		WarehouseID:         obs.WarehouseID,
		Items:               items,
		ScheduledPickupTime: obs.ScheduledPickupTime,
	}, trigger)
	if err != nil {
		return err
	}
	if result.Duplicate {
		// Already taken in on an earlier pass; just retry the ack.
		_, err := o.source.MarkOrderAsProcessed(ctx, o.endpoint, obs.OrderID)
		return err
	}
	if !result.Reserved {
		log.Printf("[OrderSourceObserver] order %s accepted without full reservation: %v", obs.OrderID, result.LineFailures)
	}

	if _, err := o.source.MarkOrderAsProcessed(ctx, o.endpoint, obs.OrderID); err != nil {
		// The order is safely stored; the source will re-offer it and
		// intake will treat the replay as a duplicate.
		log.Printf("[OrderSourceObserver] failed to ack order %s upstream: %v", obs.OrderID, err)
	}

	env, err := event.Wrap(&NewOrderObserved{
		OrderID:        obs.OrderID,
		WarehouseID:    obs.WarehouseID,
		Reserved:       result.Reserved,
		TriggerContext: trigger,
		OccurredAtTime: time.Now(),
	})
	if err != nil {
		return err
	}
	return o.outbox.Enqueue(ctx, env)
}

func (o *OrderSourceObserver) advanceCursor(observedAt time.Time) {
	o.mu.Lock()
	if observedAt.After(o.cursor) {
		o.cursor = observedAt
	}
	o.mu.Unlock()
}
