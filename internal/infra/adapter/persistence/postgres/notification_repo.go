package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/repository"
)

// insertChunkSize keeps multi-row inserts well below PostgreSQL's 65535 bind parameter limit.
const insertChunkSize = 1000

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) repository.NotificationRepository {
	return &NotificationRepo{db: db}
}

func (repo *NotificationRepo) CreateAndMarkProcessed(ctx context.Context, candidates []entity.NotificationCandidate, articleIDs []int64) ([]*entity.Notification, error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateAndMarkProcessed: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created, err := insertNotifications(ctx, tx, candidates)
	if err != nil {
		return nil, fmt.Errorf("CreateAndMarkProcessed: %w", err)
	}
	if err := markArticlesProcessed(ctx, tx, articleIDs); err != nil {
		return nil, fmt.Errorf("CreateAndMarkProcessed: mark processed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateAndMarkProcessed: commit: %w", err)
	}
	return created, nil
}

func (repo *NotificationRepo) MarkEmailed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := psql.Update("notifications").
		Set("is_emailed", true).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("MarkEmailed: build: %w", err)
	}
	if _, err := repo.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("MarkEmailed: %w", err)
	}
	return nil
}

func insertNotifications(ctx context.Context, q dbtx, candidates []entity.NotificationCandidate) ([]*entity.Notification, error) {
	created := make([]*entity.Notification, 0, len(candidates))
	for start := 0; start < len(candidates); start += insertChunkSize {
		end := min(start+insertChunkSize, len(candidates))

		builder := psql.Insert("notifications").
			Columns("user_id", "article_id", "category_id", "keyword_id", "is_read", "is_emailed")
		for _, c := range candidates[start:end] {
			builder = builder.Values(c.UserID, c.ArticleID, c.CategoryID, c.KeywordID, false, false)
		}
		query, args, err := builder.
			Suffix("RETURNING id, user_id, article_id, category_id, keyword_id, is_read, is_emailed, created_at").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("insert notifications: build: %w", err)
		}

		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("insert notifications: %w", mapError(err))
		}
		for rows.Next() {
			n, err := scanNotification(rows)
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("insert notifications: Scan: %w", err)
			}
			created = append(created, n)
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("insert notifications: %w", mapError(err))
		}
	}
	return created, nil
}

func scanNotification(rows *sql.Rows) (*entity.Notification, error) {
	var n entity.Notification
	var articleID, categoryID, keywordID sql.NullInt64
	if err := rows.Scan(&n.ID, &n.UserID, &articleID, &categoryID, &keywordID,
		&n.IsRead, &n.IsEmailed, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.ArticleID = nullableID(articleID)
	n.CategoryID = nullableID(categoryID)
	n.KeywordID = nullableID(keywordID)
	return &n, nil
}
