package event

import (
	"time"

	"github.com/google/uuid"
)

// Trigger sources carried on a TriggerContext.
const (
	TriggerSourceManual    = "MANUAL"
	TriggerSourceScheduler = "SCHEDULER"
	TriggerSourceEvent     = "EVENT"
	TriggerSourceObserver  = "OBSERVER"
)

// UnknownAggregateID is used when an event cannot report its aggregate id.
const UnknownAggregateID = "UNKNOWN"

// TriggerContext attributes why a transition happened. It is constructed
// once per causal chain and propagated by value; derived contexts keep the
// originating correlation id.
type TriggerContext struct {
	TriggerSource string    `json:"trigger_source"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
	TriggerBy     string    `json:"trigger_by"`
}

func ManualTrigger(by string) TriggerContext {
	return TriggerContext{
		TriggerSource: TriggerSourceManual,
		CorrelationID: uuid.New().String(),
		Timestamp:     time.Now(),
		TriggerBy:     by,
	}
}

func SchedulerTrigger(jobName string) TriggerContext {
	return TriggerContext{
		TriggerSource: TriggerSourceScheduler,
		CorrelationID: uuid.New().String(),
		Timestamp:     time.Now(),
		TriggerBy:     jobName,
	}
}

func ObserverTrigger(observerName string) TriggerContext {
	return TriggerContext{
		TriggerSource: TriggerSourceObserver,
		CorrelationID: uuid.New().String(),
		Timestamp:     time.Now(),
		TriggerBy:     observerName,
	}
}

// DerivedTrigger builds a context for work caused by an upstream event,
// keeping the upstream correlation id so the causal chain stays traceable.
func DerivedTrigger(parent TriggerContext, by string) TriggerContext {
	return TriggerContext{
		TriggerSource: TriggerSourceEvent,
		CorrelationID: parent.CorrelationID,
		Timestamp:     time.Now(),
		TriggerBy:     by,
	}
}

// DomainEvent is implemented by every event this system produces. Each
// event reports its own aggregate identity, so consumers never have to
// guess it from the payload shape.
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
	AggregateRef() (aggregateType, aggregateID string)
}

// Triggered is implemented by events that carry the trigger context of the
// command that produced them.
type Triggered interface {
	Trigger() *TriggerContext
}
