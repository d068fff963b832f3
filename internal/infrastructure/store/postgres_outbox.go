package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/levijcl/Wei-sub002/internal/domain/event"
	"github.com/levijcl/Wei-sub002/internal/outbox"
)

// PostgresOutbox persists outbox rows. Enqueue joins the transaction
// carried in ctx, so events commit atomically with the aggregate rows
// that produced them.
type PostgresOutbox struct {
	db *sql.DB
}

func NewPostgresOutbox(db *sql.DB) *PostgresOutbox {
	return &PostgresOutbox{db: db}
}

func (o *PostgresOutbox) Enqueue(ctx context.Context, envs ...event.Envelope) error {
	q := querier(ctx, o.db)
	for _, env := range envs {
		var trigger []byte
		if env.Trigger != nil {
			var err error
			trigger, err = json.Marshal(env.Trigger)
			if err != nil {
				return err
			}
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO outbox (id, envelope_id, event_name, aggregate_type, aggregate_id, occurred_at, trigger_context, payload, status, retries, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10)`,
			uuid.New().String(), env.ID, env.EventName, env.AggregateType, env.AggregateID,
			env.OccurredAt, trigger, []byte(env.Payload), string(outbox.StatusPending), time.Now(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *PostgresOutbox) FetchPending(ctx context.Context, limit int) ([]outbox.Row, error) {
	rows, err := querier(ctx, o.db).QueryContext(ctx,
		`SELECT id, envelope_id, event_name, aggregate_type, aggregate_id, occurred_at, trigger_context, payload, status, retries, last_error, created_at, processed_at
		 FROM outbox WHERE status = $1 ORDER BY created_at ASC LIMIT $2`,
		string(outbox.StatusPending), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []outbox.Row
	for rows.Next() {
		var (
			r         outbox.Row
			status    string
			trigger   []byte
			payload   []byte
			lastError sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Envelope.ID, &r.Envelope.EventName, &r.Envelope.AggregateType,
			&r.Envelope.AggregateID, &r.Envelope.OccurredAt, &trigger, &payload,
			&status, &r.Retries, &lastError, &r.CreatedAt, &r.ProcessedAt); err != nil {
			return nil, err
		}
		r.Status = outbox.Status(status)
		r.LastError = lastError.String
		r.Envelope.Payload = payload
		if len(trigger) > 0 {
			var tc event.TriggerContext
			if err := json.Unmarshal(trigger, &tc); err != nil {
				return nil, err
			}
			r.Envelope.Trigger = &tc
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (o *PostgresOutbox) MarkProcessed(ctx context.Context, id string) error {
	_, err := querier(ctx, o.db).ExecContext(ctx,
		`UPDATE outbox SET status = $1, processed_at = $2 WHERE id = $3`,
		string(outbox.StatusProcessed), time.Now(), id)
	return err
}

func (o *PostgresOutbox) MarkRetry(ctx context.Context, id string, lastError string) error {
	_, err := querier(ctx, o.db).ExecContext(ctx,
		`UPDATE outbox SET retries = retries + 1, last_error = $1 WHERE id = $2`,
		lastError, id)
	return err
}

func (o *PostgresOutbox) MarkFailed(ctx context.Context, id string, lastError string) error {
	_, err := querier(ctx, o.db).ExecContext(ctx,
		`UPDATE outbox SET status = $1, retries = retries + 1, last_error = $2, processed_at = $3 WHERE id = $4`,
		string(outbox.StatusFailed), lastError, time.Now(), id)
	return err
}
