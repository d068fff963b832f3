package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
)

// contextForAggregate maps an aggregate type to the subsystem the event
// originated from. Unknown types fall back to the aggregate type itself.
var contextForAggregate = map[string]string{
	"Order":                "ORDER",
	"PickingTask":          "FULFILLMENT",
	"InventoryTransaction": "INVENTORY",
	"InventoryAdjustment":  "INVENTORY",
	"Inventory":            "INVENTORY",
	"Observation":          "OBSERVATION",
}

// Pipeline turns dispatched domain events into audit records. It is
// best-effort: persistence failures are logged and swallowed so audit can
// never block or roll back the business transaction it describes.
type Pipeline struct {
	store Store
}

func NewPipeline(store Store) *Pipeline {
	return &Pipeline{store: store}
}

func (p *Pipeline) Name() string { return "audit" }

// Handle implements outbox.Handler. Aggregate identity and trigger context
// come straight off the envelope, which the event itself populated through
// its AggregateRef contract.
func (p *Pipeline) Handle(ctx context.Context, env event.Envelope, _ event.DomainEvent) error {
	record := p.buildRecord(env)
	if err := p.store.SaveRecord(ctx, record); err != nil {
		log.Printf("[Audit] failed to persist record for %s (%s %s): %v",
			env.EventName, env.AggregateType, env.AggregateID, err)
	}
	return nil
}

func (p *Pipeline) buildRecord(env event.Envelope) *Record {
	meta := Metadata{Context: p.deriveContext(env.AggregateType)}
	if env.Trigger != nil {
		meta.CorrelationID = env.Trigger.CorrelationID
		meta.TriggerSource = env.Trigger.TriggerSource
		meta.TriggerBy = env.Trigger.TriggerBy
	} else {
		// No trigger carried: record it as a manual action so the trail
		// never has an unattributed transition.
		manual := event.ManualTrigger("unattributed")
		meta.CorrelationID = manual.CorrelationID
		meta.TriggerSource = manual.TriggerSource
		meta.TriggerBy = manual.TriggerBy
	}

	return &Record{
		RecordID:       uuid.New().String(),
		AggregateType:  env.AggregateType,
		AggregateID:    env.AggregateID,
		EventName:      env.EventName,
		EventTimestamp: env.OccurredAt,
		Metadata:       meta,
		Payload:        env.Payload,
		CreatedAt:      time.Now(),
	}
}

func (p *Pipeline) deriveContext(aggregateType string) string {
	if c, ok := contextForAggregate[aggregateType]; ok {
		return c
	}
	return aggregateType
}
