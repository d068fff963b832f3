package event

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Envelope is the durable representation of a domain event: what the
// outbox stores, Kafka carries, and the audit pipeline persists.
type Envelope struct {
	ID            string          `json:"id"`
	EventName     string          `json:"event_name"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Trigger       *TriggerContext `json:"trigger,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Wrap serializes a domain event into an envelope.
func Wrap(e DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal event %s: %w", e.EventName(), err)
	}

	aggType, aggID := e.AggregateRef()
	if aggID == "" {
		aggID = UnknownAggregateID
	}

	env := Envelope{
		ID:            uuid.New().String(),
		EventName:     e.EventName(),
		AggregateType: aggType,
		AggregateID:   aggID,
		OccurredAt:    e.OccurredAt(),
		Payload:       payload,
	}
	if t, ok := e.(Triggered); ok {
		env.Trigger = t.Trigger()
	}
	return env, nil
}

// WrapAll wraps a drained event buffer.
func WrapAll(events []DomainEvent) ([]Envelope, error) {
	envs := make([]Envelope, 0, len(events))
	for _, e := range events {
		env, err := Wrap(e)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// DecodeFunc turns an envelope payload back into its typed event.
type DecodeFunc func(json.RawMessage) (DomainEvent, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DecodeFunc)
)

// Register installs a decoder for an event name. Called from package init
// in each domain package.
func Register(eventName string, decode DecodeFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[eventName] = decode
}

// Decode reconstructs the typed event from an envelope. The second return
// is false when no decoder is registered for the event name; callers that
// only need the envelope (audit) can proceed without the typed form.
func Decode(env Envelope) (DomainEvent, bool, error) {
	registryMu.RLock()
	decode, ok := registry[env.EventName]
	registryMu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	e, err := decode(env.Payload)
	if err != nil {
		return nil, true, fmt.Errorf("failed to decode event %s: %w", env.EventName, err)
	}
	return e, true, nil
}
