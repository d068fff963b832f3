package outbox

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/levijcl/Wei-sub002/internal/domain/event"
)

// Handler consumes dispatched events in-process, after commit. Each
// handler runs isolated: one handler's failure never reaches another, and
// never unwinds the business transaction that produced the event.
type Handler interface {
	Name() string
	// Handle receives the envelope plus the decoded event; ev is nil when
	// no decoder is registered for the event name.
	Handle(ctx context.Context, env event.Envelope, ev event.DomainEvent) error
}

// Publisher pushes the envelope onto the external event stream.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

const (
	defaultBatchSize  = 50
	defaultMaxRetries = 5
)

// Dispatcher drains pending outbox rows in order: decode, fan out to
// handlers, publish to the stream, mark processed. A row that keeps
// failing is parked as failed after maxRetries so it cannot wedge the
// stream; delivery is at-least-once and consumers are expected to be
// idempotent.
type Dispatcher struct {
	repo       Repository
	publisher  Publisher
	handlers   []Handler
	batchSize  int
	maxRetries int
}

func NewDispatcher(repo Repository, publisher Publisher) *Dispatcher {
	return &Dispatcher{
		repo:       repo,
		publisher:  publisher,
		batchSize:  defaultBatchSize,
		maxRetries: defaultMaxRetries,
	}
}

// Subscribe registers an in-process handler. Not safe to call after Run.
func (d *Dispatcher) Subscribe(h Handler) {
	d.handlers = append(d.handlers, h)
}

// Run drains the outbox on an interval until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.DispatchOnce(ctx); err != nil {
				log.Printf("[Outbox] dispatch pass failed: %v", err)
			}
		}
	}
}

// DispatchOnce processes one batch of pending rows and reports how many
// were fully dispatched.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	rows, err := d.repo.FetchPending(ctx, d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending outbox rows: %w", err)
	}

	dispatched := 0
	for _, row := range rows {
		if err := d.dispatchRow(ctx, row); err != nil {
			if row.Retries+1 >= d.maxRetries {
				log.Printf("[Outbox] row %s (%s) exhausted retries: %v", row.ID, row.Envelope.EventName, err)
				if markErr := d.repo.MarkFailed(ctx, row.ID, err.Error()); markErr != nil {
					return dispatched, markErr
				}
			} else {
				if markErr := d.repo.MarkRetry(ctx, row.ID, err.Error()); markErr != nil {
					return dispatched, markErr
				}
			}
			continue
		}
		if err := d.repo.MarkProcessed(ctx, row.ID); err != nil {
			return dispatched, err
		}
		dispatched++
	}
	return dispatched, nil
}

func (d *Dispatcher) dispatchRow(ctx context.Context, row Row) error {
	ev, _, err := event.Decode(row.Envelope)
	if err != nil {
		// A payload that cannot decode will never decode; handlers still
		// get the envelope.
		log.Printf("[Outbox] row %s: %v", row.ID, err)
	}

	var firstErr error
	for _, h := range d.handlers {
		if err := h.Handle(ctx, row.Envelope, ev); err != nil {
			log.Printf("[Outbox] handler %s failed on %s (%s): %v", h.Name(), row.Envelope.EventName, row.Envelope.AggregateID, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("handler %s: %w", h.Name(), err)
			}
		}
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, row.Envelope.AggregateID, row.Envelope); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("publish: %w", err)
			}
		}
	}
	return firstErr
}
