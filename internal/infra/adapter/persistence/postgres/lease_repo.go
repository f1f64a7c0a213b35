package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"news-notifier/internal/repository"
)

// LeaseRepo stores run leases in the pipeline_leases table.
type LeaseRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewLeaseRepo(db *sql.DB) repository.LeaseRepository {
	return &LeaseRepo{db: db, now: time.Now}
}

func (repo *LeaseRepo) TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	const query = `
INSERT INTO pipeline_leases (name, holder, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE
   SET holder = EXCLUDED.holder,
       expires_at = EXCLUDED.expires_at
 WHERE pipeline_leases.expires_at < $4
    OR pipeline_leases.holder = EXCLUDED.holder`
	now := repo.now()
	res, err := repo.db.ExecContext(ctx, query, name, holder, now.Add(ttl), now)
	if err != nil {
		return false, fmt.Errorf("TryAcquire: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("TryAcquire: rows affected: %w", err)
	}
	return n == 1, nil
}

func (repo *LeaseRepo) Release(ctx context.Context, name, holder string) error {
	const query = `DELETE FROM pipeline_leases WHERE name = $1 AND holder = $2`
	if _, err := repo.db.ExecContext(ctx, query, name, holder); err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}
