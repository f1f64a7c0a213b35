package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/repository"
)

type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

func (repo *SourceRepo) GetActive(ctx context.Context) (*entity.Source, error) {
	const query = `
SELECT id, name, source_type, base_url, api_key_ref, active, last_fetch_at, last_error
FROM sources
WHERE active = TRUE
ORDER BY id ASC
LIMIT 1`
	var source entity.Source
	var lastFetchAt sql.NullTime
	var lastError sql.NullString
	err := repo.db.QueryRowContext(ctx, query).Scan(
		&source.ID, &source.Name, &source.SourceType, &source.BaseURL,
		&source.APIKeyRef, &source.Active, &lastFetchAt, &lastError,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetActive: %w", err)
	}
	if lastFetchAt.Valid {
		source.LastFetchAt = &lastFetchAt.Time
	}
	if lastError.Valid {
		source.LastError = &lastError.String
	}
	return &source, nil
}

func (repo *SourceRepo) RecordFetchResult(ctx context.Context, id int64, at time.Time, lastErr *string) error {
	const query = `UPDATE sources SET last_fetch_at = $1, last_error = $2 WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, query, at, lastErr, id)
	if err != nil {
		return fmt.Errorf("RecordFetchResult: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("RecordFetchResult: %w", entity.ErrNotFound)
	}
	return nil
}
