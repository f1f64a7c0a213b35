// Package pipeline runs the scheduled ingest, match, store and email stages
// as one unit of work.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/observability/logging"
	"news-notifier/internal/observability/metrics"
	"news-notifier/internal/observability/tracing"
	"news-notifier/internal/repository"
	"news-notifier/internal/usecase/ingest"
	"news-notifier/internal/usecase/match"
	"news-notifier/internal/usecase/notify"
)

// LeaseName identifies the pipeline's run lease.
const LeaseName = "news-pipeline"

// Stage names used in spans, metrics and logs.
const (
	StageIngest = "ingest"
	StageSelect = "select"
	StageMatch  = "match"
	StageStore  = "store"
	StageEmail  = "email"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// RunResult describes one pipeline run.
type RunResult struct {
	RunID     string
	Status    Status
	StartedAt time.Time
	Duration  time.Duration
	// FailedStage is the stage that aborted the run, if any.
	FailedStage string
	Errors      []string

	Ingestion            *ingest.Stats
	ArticlesProcessed    int
	NotificationsCreated int
	CategoryMatches      int
	KeywordMatches       int
	Emails               notify.FanoutResult
}

// Ingester runs the ingestion stage.
type Ingester interface {
	RunIngestion(ctx context.Context) (*ingest.Stats, error)
}

// Notifier runs the email stage.
type Notifier interface {
	SendNotificationsToUsers(
		ctx context.Context,
		notifications []*entity.Notification,
		articles map[int64]*entity.Article,
		opts ...notify.SendOption,
	) notify.FanoutResult
}

// Service wires the stages together. Lease is optional; without it runs are
// only serialized by the scheduler.
type Service struct {
	Ingester      Ingester
	Articles      repository.ArticleRepository
	Preferences   repository.PreferenceRepository
	Notifications repository.NotificationRepository
	Matcher       *match.Engine
	Notifier      Notifier

	Lease    repository.LeaseRepository
	LeaseTTL time.Duration

	Tracer trace.Tracer

	holder string
	now    func() time.Time
}

func NewService(
	ingester Ingester,
	articles repository.ArticleRepository,
	preferences repository.PreferenceRepository,
	notifications repository.NotificationRepository,
	notifier Notifier,
) *Service {
	return &Service{
		Ingester:      ingester,
		Articles:      articles,
		Preferences:   preferences,
		Notifications: notifications,
		Matcher:       match.NewEngine(),
		Notifier:      notifier,
		LeaseTTL:      30 * time.Minute,
		holder:        defaultHolder(),
		now:           time.Now,
	}
}

// WithLease enables the run lease.
func (s *Service) WithLease(lease repository.LeaseRepository, ttl time.Duration) *Service {
	s.Lease = lease
	if ttl > 0 {
		s.LeaseTTL = ttl
	}
	return s
}

// Holder returns the worker identity. Each run takes the lease as
// Holder()+"/"+run id, so two runs of one worker never share it.
func (s *Service) Holder() string { return s.holder }

// Run executes one pipeline pass. The returned result is never nil. err is the
// error that ended the run early: ErrLeaseHeld for a skipped run, otherwise
// the failing stage's error.
func (s *Service) Run(ctx context.Context) (result *RunResult, err error) {
	result = &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: s.clock(),
		Status:    StatusSuccess,
	}
	logger := logging.WithRunID(logging.FromContext(ctx), result.RunID)
	ctx = logging.WithLogger(ctx, logger)

	ctx, span := s.tracer().Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("run_id", result.RunID)))
	defer func() {
		result.Duration = s.clock().Sub(result.StartedAt)
		if err != nil && result.Status != StatusSkipped {
			result.Status = StatusFailed
			result.Errors = append(result.Errors, logging.SanitizeError(err))
			tracing.RecordError(span, err)
		}
		span.SetAttributes(attribute.String("status", string(result.Status)))
		span.End()
		metrics.RecordRun(string(result.Status), result.Duration)
		s.logResult(logger, result)
	}()

	logger.Info("pipeline run started", slog.String("trace_id", tracing.TraceID(ctx)))

	if s.Lease != nil {
		holder := s.holder + "/" + result.RunID
		acquired, lerr := s.Lease.TryAcquire(ctx, LeaseName, holder, s.LeaseTTL)
		if lerr != nil {
			return result, fmt.Errorf("acquire lease: %w", lerr)
		}
		if !acquired {
			result.Status = StatusSkipped
			return result, ErrLeaseHeld
		}
		defer func() {
			if rerr := s.Lease.Release(context.WithoutCancel(ctx), LeaseName, holder); rerr != nil {
				logger.Warn("failed to release pipeline lease", slog.String("error", logging.SanitizeError(rerr)))
			}
		}()
	}

	if err := s.stage(ctx, result, StageIngest, func(ctx context.Context) error {
		stats, err := s.Ingester.RunIngestion(ctx)
		result.Ingestion = stats
		return err
	}); err != nil {
		return result, err
	}

	var articles []*entity.Article
	if err := s.stage(ctx, result, StageSelect, func(ctx context.Context) error {
		var err error
		articles, err = s.Articles.ListUnprocessed(ctx)
		return err
	}); err != nil {
		return result, err
	}
	if len(articles) == 0 {
		logger.Info("no unprocessed articles")
		return result, nil
	}

	var (
		prefs   match.Preferences
		matched match.Result
	)
	if err := s.stage(ctx, result, StageMatch, func(ctx context.Context) error {
		var err error
		prefs, err = match.LoadPreferences(ctx, s.Preferences)
		if err != nil {
			return err
		}
		matched = s.Matcher.Match(articles, prefs)
		return nil
	}); err != nil {
		return result, err
	}

	var created []*entity.Notification
	if err := s.stage(ctx, result, StageStore, func(ctx context.Context) error {
		ids := make([]int64, 0, len(articles))
		for _, a := range articles {
			ids = append(ids, a.ID)
		}
		if len(matched.Candidates) == 0 {
			return s.Articles.MarkProcessed(ctx, ids)
		}
		var err error
		created, err = s.Notifications.CreateAndMarkProcessed(ctx, matched.Candidates, ids)
		return err
	}); err != nil {
		return result, err
	}
	result.ArticlesProcessed = len(articles)
	result.NotificationsCreated = len(created)
	result.CategoryMatches = matched.CategoryMatches
	result.KeywordMatches = matched.KeywordMatches
	metrics.RecordMatching(len(articles), matched.CategoryMatches, matched.KeywordMatches)

	if len(created) == 0 {
		return result, nil
	}

	// email failures are isolated per user and never fail the run
	_ = s.stage(ctx, result, StageEmail, func(ctx context.Context) error {
		byID := make(map[int64]*entity.Article, len(articles))
		for _, a := range articles {
			byID[a.ID] = a
		}
		keywords := make(map[int64]string, len(prefs.Watches))
		for _, w := range prefs.Watches {
			keywords[w.ID] = entity.NormalizeKeyword(w.Keyword)
		}
		result.Emails = s.Notifier.SendNotificationsToUsers(ctx, created, byID, notify.WithKeywords(keywords))
		return nil
	})

	return result, nil
}

// stage runs fn in its own span and records its duration.
func (s *Service) stage(ctx context.Context, result *RunResult, name string, fn func(context.Context) error) error {
	ctx, span := s.tracer().Start(ctx, "pipeline."+name)
	defer span.End()

	start := s.clock()
	err := fn(ctx)
	metrics.RecordStageDuration(name, s.clock().Sub(start))
	if err != nil {
		metrics.RecordStageFailure(name)
		tracing.RecordError(span, err)
		result.FailedStage = name
		return fmt.Errorf("%s stage: %w", name, err)
	}
	return nil
}

func (s *Service) logResult(logger *slog.Logger, r *RunResult) {
	attrs := []any{
		slog.String("status", string(r.Status)),
		slog.Duration("duration", r.Duration),
		slog.Int("articles_processed", r.ArticlesProcessed),
		slog.Int("notifications_created", r.NotificationsCreated),
		slog.Int("category_matches", r.CategoryMatches),
		slog.Int("keyword_matches", r.KeywordMatches),
		slog.Int("emails_sent", r.Emails.Sent),
		slog.Int("emails_failed", r.Emails.Failed),
	}
	if r.Ingestion != nil {
		attrs = append(attrs,
			slog.Int("fetched", r.Ingestion.Fetched),
			slog.Int("inserted", r.Ingestion.Inserted),
			slog.Int("skipped", r.Ingestion.Skipped))
	}

	switch r.Status {
	case StatusFailed:
		attrs = append(attrs, slog.String("failed_stage", r.FailedStage), slog.Any("errors", r.Errors))
		logger.Error("pipeline run failed", attrs...)
	case StatusSkipped:
		logger.Info("pipeline run skipped, lease held elsewhere")
	default:
		logger.Info("pipeline run completed", attrs...)
	}
}

func (s *Service) tracer() trace.Tracer {
	if s.Tracer != nil {
		return s.Tracer
	}
	return tracing.GetTracer()
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func defaultHolder() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return host + "-" + uuid.NewString()[:8]
}
