package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/levijcl/Wei-sub002/internal/audit"
)

// PostgresAuditStore is the authoritative append-only audit trail. Rows
// are only ever inserted.
type PostgresAuditStore struct {
	db *sql.DB
}

func NewPostgresAuditStore(db *sql.DB) *PostgresAuditStore {
	return &PostgresAuditStore{db: db}
}

func (s *PostgresAuditStore) SaveRecord(ctx context.Context, r *audit.Record) error {
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return err
	}
	_, err = querier(ctx, s.db).ExecContext(ctx,
		`INSERT INTO audit_records (record_id, aggregate_type, aggregate_id, event_name, event_timestamp, metadata, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.RecordID, r.AggregateType, r.AggregateID, r.EventName, r.EventTimestamp,
		metadata, []byte(r.Payload), r.CreatedAt,
	)
	return err
}

const auditColumns = `record_id, aggregate_type, aggregate_id, event_name, event_timestamp, metadata, payload, created_at`

func (s *PostgresAuditStore) ListByAggregate(ctx context.Context, aggregateType, aggregateID string) ([]audit.Record, error) {
	rows, err := querier(ctx, s.db).QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_records
		 WHERE aggregate_type = $1 AND aggregate_id = $2
		 ORDER BY created_at ASC`,
		aggregateType, aggregateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditRecords(rows)
}

func (s *PostgresAuditStore) ListRecent(ctx context.Context, limit int) ([]audit.Record, error) {
	rows, err := querier(ctx, s.db).QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_records ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditRecords(rows)
}

func scanAuditRecords(rows *sql.Rows) ([]audit.Record, error) {
	var records []audit.Record
	for rows.Next() {
		var (
			r        audit.Record
			metadata []byte
			payload  []byte
		)
		if err := rows.Scan(&r.RecordID, &r.AggregateType, &r.AggregateID, &r.EventName,
			&r.EventTimestamp, &metadata, &payload, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
			return nil, err
		}
		r.Payload = payload
		records = append(records, r)
	}
	return records, rows.Err()
}
