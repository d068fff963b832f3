// Package outbox implements the transactional-outbox half of the
// publish-after-commit discipline: state changes and their events persist
// in one transaction, a dispatcher later drains the rows, invokes
// in-process handlers and publishes to the event stream.
package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/levijcl/Wei-sub002/internal/domain/event"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

var ErrRowNotFound = errors.New("outbox row not found")

// Row is one durably recorded, not-yet-dispatched domain event.
type Row struct {
	ID          string
	Envelope    event.Envelope
	Status      Status
	Retries     int
	LastError   string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Repository is the persistence boundary for outbox rows. Enqueue is
// expected to join the transaction carried in ctx so events commit
// atomically with the state change that produced them.
type Repository interface {
	Enqueue(ctx context.Context, envs ...event.Envelope) error
	FetchPending(ctx context.Context, limit int) ([]Row, error)
	MarkProcessed(ctx context.Context, id string) error
	MarkRetry(ctx context.Context, id string, lastError string) error
	MarkFailed(ctx context.Context, id string, lastError string) error
}
