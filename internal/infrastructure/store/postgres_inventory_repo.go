package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/levijcl/Wei-sub002/internal/domain/inventory"
)

type PostgresInventoryRepository struct {
	db *sql.DB
}

func NewPostgresInventoryRepository(db *sql.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{db: db}
}

// --- TransactionRepository ---

func (r *PostgresInventoryRepository) Save(ctx context.Context, t *inventory.Transaction) error {
	lines, err := json.Marshal(t.Lines)
	if err != nil {
		return err
	}
	_, err = querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO inventory_transactions (id, type, status, source, source_reference_id, warehouse_location, external_reservation_id, lines, related_transaction_id, failure_reason, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   external_reservation_id = EXCLUDED.external_reservation_id,
		   failure_reason = EXCLUDED.failure_reason,
		   completed_at = EXCLUDED.completed_at`,
		t.ID, string(t.Type), string(t.Status), t.Source, t.SourceReferenceID, t.WarehouseLocation,
		t.ExternalReservationID, lines, t.RelatedTransactionID, t.FailureReason, t.CreatedAt, t.CompletedAt,
	)
	return err
}

const txnColumns = `id, type, status, source, source_reference_id, warehouse_location, external_reservation_id, lines, related_transaction_id, failure_reason, created_at, completed_at`

func (r *PostgresInventoryRepository) FindByID(ctx context.Context, id string) (*inventory.Transaction, error) {
	row := querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+txnColumns+` FROM inventory_transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrTransactionNotFound
	}
	return t, err
}

func (r *PostgresInventoryRepository) FindBySourceReference(ctx context.Context, sourceReferenceID string, txnType inventory.TransactionType) (*inventory.Transaction, error) {
	row := querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+txnColumns+` FROM inventory_transactions
		 WHERE source_reference_id = $1 AND type = $2
		 ORDER BY created_at DESC LIMIT 1`,
		sourceReferenceID, string(txnType))
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrTransactionNotFound
	}
	return t, err
}

func scanTransaction(row rowScanner) (*inventory.Transaction, error) {
	var (
		t       inventory.Transaction
		txnType string
		status  string
		lines   []byte
	)
	if err := row.Scan(&t.ID, &txnType, &status, &t.Source, &t.SourceReferenceID, &t.WarehouseLocation,
		&t.ExternalReservationID, &lines, &t.RelatedTransactionID, &t.FailureReason, &t.CreatedAt, &t.CompletedAt); err != nil {
		return nil, err
	}
	t.Type = inventory.TransactionType(txnType)
	t.Status = inventory.TransactionStatus(status)
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &t.Lines); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// --- AdjustmentRepository ---

type PostgresAdjustmentRepository struct {
	db *sql.DB
}

func NewPostgresAdjustmentRepository(db *sql.DB) *PostgresAdjustmentRepository {
	return &PostgresAdjustmentRepository{db: db}
}

func (r *PostgresAdjustmentRepository) Save(ctx context.Context, a *inventory.Adjustment) error {
	logs, err := json.Marshal(a.Logs)
	if err != nil {
		return err
	}
	_, err = querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO inventory_adjustments (id, status, applied_transaction_id, logs, failure_reason, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   applied_transaction_id = EXCLUDED.applied_transaction_id,
		   failure_reason = EXCLUDED.failure_reason,
		   processed_at = EXCLUDED.processed_at`,
		a.ID, string(a.Status), a.AppliedTransactionID, logs, a.FailureReason, a.CreatedAt, a.ProcessedAt,
	)
	return err
}

const adjustmentColumns = `id, status, applied_transaction_id, logs, failure_reason, created_at, processed_at`

func (r *PostgresAdjustmentRepository) FindByID(ctx context.Context, id string) (*inventory.Adjustment, error) {
	row := querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+adjustmentColumns+` FROM inventory_adjustments WHERE id = $1`, id)
	a, err := scanAdjustment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrAdjustmentNotFound
	}
	return a, err
}

func (r *PostgresAdjustmentRepository) FindPending(ctx context.Context) ([]*inventory.Adjustment, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx,
		`SELECT `+adjustmentColumns+` FROM inventory_adjustments WHERE status = $1 ORDER BY created_at ASC`,
		string(inventory.AdjStatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjustments []*inventory.Adjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}

func scanAdjustment(row rowScanner) (*inventory.Adjustment, error) {
	var (
		a      inventory.Adjustment
		status string
		logs   []byte
	)
	if err := row.Scan(&a.ID, &status, &a.AppliedTransactionID, &logs, &a.FailureReason, &a.CreatedAt, &a.ProcessedAt); err != nil {
		return nil, err
	}
	a.Status = inventory.AdjustmentStatus(status)
	if err := json.Unmarshal(logs, &a.Logs); err != nil {
		return nil, err
	}
	return &a, nil
}

// --- StockRecordRepository ---

type PostgresStockRecordRepository struct {
	db *sql.DB
}

func NewPostgresStockRecordRepository(db *sql.DB) *PostgresStockRecordRepository {
	return &PostgresStockRecordRepository{db: db}
}

func (r *PostgresStockRecordRepository) Get(ctx context.Context, sku, warehouseID string) (int, bool, error) {
	var qty int
	err := querier(ctx, r.db).QueryRowContext(ctx,
		`SELECT quantity FROM stock_records WHERE sku = $1 AND warehouse_id = $2`,
		sku, warehouseID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return qty, true, nil
}

func (r *PostgresStockRecordRepository) Set(ctx context.Context, sku, warehouseID string, quantity int) error {
	_, err := querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO stock_records (sku, warehouse_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (sku, warehouse_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		sku, warehouseID, quantity)
	return err
}

func (r *PostgresStockRecordRepository) AdjustBy(ctx context.Context, sku, warehouseID string, delta int) error {
	_, err := querier(ctx, r.db).ExecContext(ctx,
		`INSERT INTO stock_records (sku, warehouse_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (sku, warehouse_id) DO UPDATE SET quantity = stock_records.quantity + $3`,
		sku, warehouseID, delta)
	return err
}
