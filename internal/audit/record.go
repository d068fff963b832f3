// Package audit persists an immutable record of every domain event,
// making each state transition traceable to the trigger that caused it.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrRecordNotFound = errors.New("audit record not found")

// Metadata attributes why the recorded transition happened.
type Metadata struct {
	Context       string `json:"context"`
	CorrelationID string `json:"correlation_id"`
	TriggerSource string `json:"trigger_source"`
	TriggerBy     string `json:"trigger_by"`
}

// Record is append-only: never updated or deleted by this system.
type Record struct {
	RecordID       string          `json:"record_id"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventName      string          `json:"event_name"`
	EventTimestamp time.Time       `json:"event_timestamp"`
	Metadata       Metadata        `json:"metadata"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Store is the persistence boundary for audit records.
type Store interface {
	SaveRecord(ctx context.Context, r *Record) error
	ListByAggregate(ctx context.Context, aggregateType, aggregateID string) ([]Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}
