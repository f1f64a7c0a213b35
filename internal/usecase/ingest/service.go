package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/observability/logging"
	"news-notifier/internal/observability/metrics"
	"news-notifier/internal/repository"
)

// Stats summarizes one ingestion run.
type Stats struct {
	Source     string
	Fetched    int
	Inserted   int
	Skipped    int
	Duplicated int
	Failed     int
	Duration   time.Duration
}

// Service pulls the active source's feed and stores new articles.
type Service struct {
	SourceRepo   repository.SourceRepository
	ArticleRepo  repository.ArticleRepository
	CategoryRepo repository.CategoryRepository
	FeedClient   FeedClient
	Normalizer   *Normalizer

	// Banned is consulted only when BannedFilter is set; a nil checker disables the gate.
	Banned       BannedKeywordChecker
	BannedFilter bool

	now func() time.Time
}

func NewService(
	sourceRepo repository.SourceRepository,
	articleRepo repository.ArticleRepository,
	categoryRepo repository.CategoryRepository,
	feedClient FeedClient,
	normalizer *Normalizer,
) *Service {
	return &Service{
		SourceRepo:   sourceRepo,
		ArticleRepo:  articleRepo,
		CategoryRepo: categoryRepo,
		FeedClient:   feedClient,
		Normalizer:   normalizer,
		now:          time.Now,
	}
}

// WithBannedFilter enables the banned-keyword gate.
func (s *Service) WithBannedFilter(checker BannedKeywordChecker) *Service {
	s.Banned = checker
	s.BannedFilter = checker != nil
	return s
}

// RunIngestion fetches the active source once and persists every new, well-formed
// item. A feed failure aborts the run and is stored on the source row. Malformed
// or already-known items are skipped, other per-item storage failures are counted
// and the batch continues. entity.ErrDuplicate from storage is returned as fatal.
func (s *Service) RunIngestion(ctx context.Context) (stats *Stats, err error) {
	logger := logging.FromContext(ctx)
	start := s.clock()
	stats = &Stats{}

	src, err := s.SourceRepo.GetActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("get active source: %w", err)
	}
	if src == nil {
		return stats, ErrNoActiveSource
	}
	stats.Source = src.Name

	defer func() {
		stats.Duration = s.clock().Sub(start)
		s.recordFetchResult(ctx, src, err)
	}()

	if verr := src.Validate(); verr != nil {
		return stats, fmt.Errorf("%w: %s: %w", ErrFeedFetchFailed, src.Name, verr)
	}

	fetchStart := s.clock()
	items, err := s.FeedClient.Fetch(ctx, src)
	if err != nil {
		metrics.RecordFeedFetch(src.Name, s.clock().Sub(fetchStart), fetchErrorType(err))
		return stats, fmt.Errorf("%w: %s: %w", ErrFeedFetchFailed, src.Name, err)
	}
	metrics.RecordFeedFetch(src.Name, s.clock().Sub(fetchStart), "")
	stats.Fetched = len(items)

	categories, err := s.CategoryRepo.ListActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("list active categories: %w", err)
	}
	active := NewCategoryIndex(categories)

	urls := make([]string, 0, len(items))
	for _, item := range items {
		if u := CanonicalURL(item.URL); u != "" {
			urls = append(urls, u)
		}
	}
	exists, err := s.ArticleRepo.ExistsByURLBatch(ctx, urls)
	if err != nil {
		return stats, fmt.Errorf("check existing urls: %w", err)
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := s.ingestItem(ctx, item, active, exists, seen, stats); err != nil {
			return stats, err
		}
	}

	metrics.RecordIngestion(src.Name, stats.Fetched, stats.Inserted, stats.Skipped, stats.Duplicated, stats.Failed)
	logger.Info("ingestion completed",
		slog.String("source", src.Name),
		slog.Int("fetched", stats.Fetched),
		slog.Int("inserted", stats.Inserted),
		slog.Int("skipped", stats.Skipped),
		slog.Int("duplicated", stats.Duplicated),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", s.clock().Sub(start)))

	return stats, nil
}

func (s *Service) ingestItem(
	ctx context.Context,
	item FeedItem,
	active CategoryIndex,
	exists, seen map[string]bool,
	stats *Stats,
) error {
	logger := logging.FromContext(ctx)

	article, err := s.Normalizer.Normalize(item, active)
	if err != nil {
		stats.Skipped++
		logger.Warn("skipping feed item",
			slog.String("url", item.URL),
			slog.String("title", item.Title),
			slog.String("reason", err.Error()))
		return nil
	}

	if exists[article.URL] || seen[article.URL] {
		stats.Duplicated++
		return nil
	}
	seen[article.URL] = true

	if s.BannedFilter && s.Banned != nil {
		if res := s.Banned.ContainsBannedKeywords(article.Title + " " + article.Body); res.HasBanned {
			stats.Skipped++
			logger.Info("skipping feed item",
				slog.String("url", article.URL),
				slog.String("reason", errBannedContent.Error()),
				slog.Any("matched", res.Matched))
			return nil
		}
	}

	if err := s.ArticleRepo.Create(ctx, article); err != nil {
		if errors.Is(err, entity.ErrDuplicate) {
			return fmt.Errorf("create article %s: %w", article.URL, err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		stats.Failed++
		logger.Error("failed to store article",
			slog.String("url", article.URL),
			slog.String("error", logging.SanitizeError(err)))
		return nil
	}
	stats.Inserted++
	return nil
}

// recordFetchResult stores the run outcome on the source row. It runs on a
// context detached from cancellation so an aborted run still leaves a trace.
func (s *Service) recordFetchResult(ctx context.Context, src *entity.Source, runErr error) {
	var lastErr *string
	if runErr != nil {
		msg := logging.SanitizeError(runErr)
		lastErr = &msg
	}
	safeCtx := context.WithoutCancel(ctx)
	if err := s.SourceRepo.RecordFetchResult(safeCtx, src.ID, s.clock(), lastErr); err != nil {
		logging.FromContext(ctx).Error("failed to record fetch result",
			slog.Int64("source_id", src.ID),
			slog.String("error", logging.SanitizeError(err)))
	}
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func fetchErrorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "fetch_failed"
	}
}
