package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/levijcl/Wei-sub002/internal/domain/picking"
)

type PostgresPickingRepository struct {
	db *sql.DB
}

func NewPostgresPickingRepository(db *sql.DB) *PostgresPickingRepository {
	return &PostgresPickingRepository{db: db}
}

func (r *PostgresPickingRepository) Save(ctx context.Context, t *picking.Task) error {
	items, err := json.Marshal(t.Items)
	if err != nil {
		return err
	}
	_, err = querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO picking_tasks (id, wes_task_id, order_id, origin, priority, status, items, failure_reason, created_at, submitted_at, completed_at, canceled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   wes_task_id = EXCLUDED.wes_task_id,
		   priority = EXCLUDED.priority,
		   status = EXCLUDED.status,
		   items = EXCLUDED.items,
		   failure_reason = EXCLUDED.failure_reason,
		   submitted_at = EXCLUDED.submitted_at,
		   completed_at = EXCLUDED.completed_at,
		   canceled_at = EXCLUDED.canceled_at`,
		t.ID, t.WesTaskID, t.OrderID, string(t.Origin), t.Priority, string(t.Status), items,
		t.FailureReason, t.CreatedAt, t.SubmittedAt, t.CompletedAt, t.CanceledAt,
	)
	return err
}

const pickingColumns = `id, wes_task_id, order_id, origin, priority, status, items, failure_reason, created_at, submitted_at, completed_at, canceled_at`

func (r *PostgresPickingRepository) FindByID(ctx context.Context, id string) (*picking.Task, error) {
	row := querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+pickingColumns+` FROM picking_tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, picking.ErrTaskNotFound
	}
	return t, err
}

func (r *PostgresPickingRepository) FindByOrderID(ctx context.Context, orderID string) ([]*picking.Task, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT `+pickingColumns+` FROM picking_tasks WHERE order_id = $1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// FindAwaitingWes returns tasks the WES currently owns, for status polling.
func (r *PostgresPickingRepository) FindAwaitingWes(ctx context.Context) ([]*picking.Task, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT `+pickingColumns+` FROM picking_tasks WHERE status IN ($1, $2) AND wes_task_id <> '' ORDER BY created_at ASC`,
		string(picking.StatusSubmitted), string(picking.StatusInProgress))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]*picking.Task, error) {
	var tasks []*picking.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*picking.Task, error) {
	var (
		t      picking.Task
		origin string
		status string
		items  []byte
	)
	if err := row.Scan(&t.ID, &t.WesTaskID, &t.OrderID, &origin, &t.Priority, &status, &items,
		&t.FailureReason, &t.CreatedAt, &t.SubmittedAt, &t.CompletedAt, &t.CanceledAt); err != nil {
		return nil, err
	}
	t.Origin = picking.Origin(origin)
	t.Status = picking.Status(status)
	if err := json.Unmarshal(items, &t.Items); err != nil {
		return nil, err
	}
	return &t, nil
}
