package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/levijcl/Wei-sub002/internal/command"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/domain/order"
)

// FulfillmentInitiator scans for orders whose fulfillment window has
// opened and initiates a picking task for each. One order failing does not
// stop the sweep; failed orders stay pre-fulfillment and are retried next
// cycle.
type FulfillmentInitiator struct {
	orders   order.Repository
	commands *command.Handler
	priority int
	now      func() time.Time
}

func NewFulfillmentInitiator(orders order.Repository, commands *command.Handler, priority int) *FulfillmentInitiator {
	return &FulfillmentInitiator{
		orders:   orders,
		commands: commands,
		priority: priority,
		now:      time.Now,
	}
}

// Run performs one sweep. It is the Run function of the fulfillment job.
func (f *FulfillmentInitiator) Run(ctx context.Context) error {
	candidates, err := f.orders.FindPreFulfillment(ctx)
	if err != nil {
		return err
	}

	now := f.now()
	initiated, failed := 0, 0
	for _, o := range candidates {
		if !o.DueForFulfillment(now) {
			continue
		}
		trigger := event.SchedulerTrigger("fulfillment-initiator")
		if _, err := f.commands.InitiateFulfillment(ctx, command.InitiateFulfillment{
			OrderID:  o.ID,
			Priority: f.priority,
		}, trigger); err != nil {
			log.Printf("[FulfillmentInitiator] order %s: %v", o.ID, err)
			failed++
			continue
		}
		initiated++
	}
	if initiated > 0 || failed > 0 {
		log.Printf("[FulfillmentInitiator] initiated %d, failed %d of %d candidates", initiated, failed, len(candidates))
	}
	return nil
}
