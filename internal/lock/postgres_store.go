package lock

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresLeaseStore keeps leases as rows in a shared table:
// (lock_key, region) -> (owner_id, created_at). A row older than its TTL is
// treated as expired and deleted on the next acquisition attempt, so a
// crashed owner starves the key for at most one TTL period. The row format
// must stay wire-compatible across a rolling deployment.
type PostgresLeaseStore struct {
	db     *sql.DB
	region string
}

func NewPostgresLeaseStore(db *sql.DB, region string) *PostgresLeaseStore {
	if region == "" {
		region = "default"
	}
	return &PostgresLeaseStore{db: db, region: region}
}

func (s *PostgresLeaseStore) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	// Evict an expired holder first; the insert below then races fairly.
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM scheduler_lock WHERE lock_key = $1 AND region = $2 AND created_at < $3`,
		key, s.region, time.Now().Add(-ttl),
	)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduler_lock (lock_key, region, owner_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (lock_key, region) DO NOTHING`,
		key, s.region, owner, time.Now(),
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (s *PostgresLeaseStore) Release(ctx context.Context, key, owner string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM scheduler_lock WHERE lock_key = $1 AND region = $2 AND owner_id = $3`,
		key, s.region, owner,
	)
	return err
}

// ActiveLeases counts live rows, expired ones excluded.
func (s *PostgresLeaseStore) ActiveLeases(ctx context.Context, ttl time.Duration) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scheduler_lock WHERE region = $1 AND created_at >= $2`,
		s.region, time.Now().Add(-ttl),
	).Scan(&n)
	return n, err
}
