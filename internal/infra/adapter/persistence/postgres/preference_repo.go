package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/repository"
)

type PreferenceRepo struct{ db *sql.DB }

func NewPreferenceRepo(db *sql.DB) repository.PreferenceRepository {
	return &PreferenceRepo{db: db}
}

func (repo *PreferenceRepo) ListActiveSubscriptions(ctx context.Context) ([]entity.CategorySubscription, error) {
	const query = `
SELECT s.user_id, s.category_id, s.is_subscribed
FROM category_subscriptions s
INNER JOIN categories c ON c.id = s.category_id
WHERE s.is_subscribed = TRUE
  AND c.active = TRUE
ORDER BY s.user_id ASC, s.category_id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActiveSubscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := make([]entity.CategorySubscription, 0, 64)
	for rows.Next() {
		var s entity.CategorySubscription
		if err := rows.Scan(&s.UserID, &s.CategoryID, &s.IsSubscribed); err != nil {
			return nil, fmt.Errorf("ListActiveSubscriptions: Scan: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (repo *PreferenceRepo) ListActiveKeywordWatches(ctx context.Context) ([]entity.KeywordWatch, error) {
	const query = `
SELECT id, user_id, category_id, keyword, is_active, created_at
FROM keyword_watches
WHERE is_active = TRUE
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActiveKeywordWatches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	watches := make([]entity.KeywordWatch, 0, 64)
	for rows.Next() {
		var w entity.KeywordWatch
		var categoryID sql.NullInt64
		if err := rows.Scan(&w.ID, &w.UserID, &categoryID, &w.Keyword, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListActiveKeywordWatches: Scan: %w", err)
		}
		w.CategoryID = nullableID(categoryID)
		watches = append(watches, w)
	}
	return watches, rows.Err()
}

func (repo *PreferenceRepo) GetRecipients(ctx context.Context, userIDs []int64) (map[int64]entity.Recipient, error) {
	result := make(map[int64]entity.Recipient, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	const query = `
SELECT id, email, display_name
FROM users
WHERE id = ANY($1)
  AND email <> ''`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("GetRecipients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r entity.Recipient
		if err := rows.Scan(&r.UserID, &r.Email, &r.DisplayName); err != nil {
			return nil, fmt.Errorf("GetRecipients: Scan: %w", err)
		}
		result[r.UserID] = r
	}
	return result, rows.Err()
}

type BannedKeywordRepo struct{ db *sql.DB }

func NewBannedKeywordRepo(db *sql.DB) repository.BannedKeywordRepository {
	return &BannedKeywordRepo{db: db}
}

func (repo *BannedKeywordRepo) ListActive(ctx context.Context) ([]entity.BannedKeyword, error) {
	const query = `SELECT id, keyword, active FROM banned_keywords WHERE active = TRUE ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keywords []entity.BannedKeyword
	for rows.Next() {
		var k entity.BannedKeyword
		if err := rows.Scan(&k.ID, &k.Keyword, &k.Active); err != nil {
			return nil, fmt.Errorf("ListActive: Scan: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}
