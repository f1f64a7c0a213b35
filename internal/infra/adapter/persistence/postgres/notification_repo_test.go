package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/infra/adapter/persistence/postgres"
)

func notificationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "article_id", "category_id", "keyword_id",
		"is_read", "is_emailed", "created_at",
	})
}

func ptr(v int64) *int64 { return &v }

func TestNotificationRepo_CreateAndMarkProcessed(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	candidates := []entity.NotificationCandidate{
		{UserID: 1, ArticleID: 10, CategoryID: ptr(3)},
		{UserID: 2, ArticleID: 10, CategoryID: ptr(3), KeywordID: ptr(77)},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO notifications (user_id,article_id,category_id,keyword_id,is_read,is_emailed) VALUES ($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12) RETURNING`)).
		WithArgs(
			int64(1), int64(10), int64(3), nil, false, false,
			int64(2), int64(10), int64(3), int64(77), false, false,
		).
		WillReturnRows(notificationRows().
			AddRow(int64(100), int64(1), int64(10), int64(3), nil, false, false, now).
			AddRow(int64(101), int64(2), int64(10), int64(3), int64(77), false, false, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE articles SET processed = TRUE`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := postgres.NewNotificationRepo(db)
	got, err := repo.CreateAndMarkProcessed(context.Background(), candidates, []int64{10})
	if err != nil {
		t.Fatalf("CreateAndMarkProcessed err=%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	if got[0].ID != 100 || got[0].KeywordID != nil || got[0].IsEmailed {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].KeywordID == nil || *got[1].KeywordID != 77 {
		t.Fatalf("unexpected second row: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestNotificationRepo_CreateAndMarkProcessed_NoCandidates(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE articles SET processed = TRUE`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	repo := postgres.NewNotificationRepo(db)
	got, err := repo.CreateAndMarkProcessed(context.Background(), nil, []int64{1, 2, 3})
	if err != nil || len(got) != 0 {
		t.Fatalf("CreateAndMarkProcessed err=%v len=%d", err, len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestNotificationRepo_CreateAndMarkProcessed_DuplicateRollsBack(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO notifications`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "notifications_user_id_article_id_key"})
	mock.ExpectRollback()

	repo := postgres.NewNotificationRepo(db)
	_, err := repo.CreateAndMarkProcessed(context.Background(),
		[]entity.NotificationCandidate{{UserID: 1, ArticleID: 10}}, []int64{10})
	if !errors.Is(err, entity.ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestNotificationRepo_MarkEmailed(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET is_emailed = $1 WHERE id IN ($2,$3)`)).
		WithArgs(true, int64(100), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := postgres.NewNotificationRepo(db)
	if err := repo.MarkEmailed(context.Background(), []int64{100, 101}); err != nil {
		t.Fatalf("MarkEmailed err=%v", err)
	}
	if err := repo.MarkEmailed(context.Background(), nil); err != nil {
		t.Fatalf("MarkEmailed(nil) err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
