// Command worker runs the news ingestion and notification pipeline on a cron
// schedule and serves health and metrics endpoints.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"news-notifier/internal/infra/adapter/persistence/postgres"
	"news-notifier/internal/infra/db"
	"news-notifier/internal/infra/feedclient"
	"news-notifier/internal/infra/lease"
	"news-notifier/internal/infra/mailer"
	workerPkg "news-notifier/internal/infra/worker"
	"news-notifier/internal/observability/logging"
	"news-notifier/internal/observability/tracing"
	"news-notifier/internal/pkg/config"
	"news-notifier/internal/repository"
	"news-notifier/internal/resilience/retry"
	"news-notifier/internal/usecase/ingest"
	"news-notifier/internal/usecase/notify"
	"news-notifier/internal/usecase/pipeline"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker exited with error", slog.String("error", logging.SanitizeError(err)))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewWorkerMetrics(nil)
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.String("lease_backend", workerConfig.LeaseBackend),
		slog.Duration("lease_ttl", workerConfig.LeaseTTL),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	shutdownTracing := initTracing(logger)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	database, err := initDatabase(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	configMetrics := workerMetrics.ConfigMetrics

	// Feed clients
	feedConfig := feedclient.LoadConfig(logger, configMetrics)
	feeds := feedclient.NewFactory(feedConfig)

	// Ingestion
	ingester, err := setupIngestion(ctx, logger, database, feeds, configMetrics)
	if err != nil {
		return err
	}

	// Email
	mailerConfig := mailer.LoadConfig(logger, configMetrics)
	mail := mailer.New(mailerConfig, logger)
	preferences := postgres.NewPreferenceRepo(database)
	notifications := postgres.NewNotificationRepo(database)
	fanout := notify.NewFanout(preferences, notifications, mail)

	svc := pipeline.NewService(
		ingester,
		postgres.NewArticleRepo(database),
		preferences,
		notifications,
		fanout,
	)
	svc.Tracer = tracing.GetTracer()

	runLease, closeLease, err := setupLease(ctx, logger, workerConfig, database)
	if err != nil {
		return err
	}
	defer closeLease()
	if runLease != nil {
		svc.WithLease(runLease, workerConfig.LeaseTTL)
		logger.Info("pipeline lease enabled",
			slog.String("backend", workerConfig.LeaseBackend),
			slog.String("holder", svc.Holder()))
	}

	job := workerPkg.NewJob(ctx, svc, workerConfig.RunTimeout, workerMetrics, logger)
	scheduler, err := workerPkg.NewScheduler(workerConfig, job, logger)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	healthServer.AddCheck("database", database.PingContext)
	healthServer.ReportJob(job)

	breakers := []BreakerSource{feeds}
	if src, ok := mail.(BreakerSource); ok {
		breakers = append(breakers, src)
	}
	metricsHandler := newMetricsHandler(breakers...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := healthServer.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return runMetricsServer(gctx, logger, workerConfig.MetricsPort, metricsHandler)
	})

	g.Go(func() error {
		scheduler.Start()
		healthServer.SetReady(true)
		logger.Info("cron worker started",
			slog.String("schedule", workerConfig.CronSchedule),
			slog.String("timezone", workerConfig.Timezone))

		<-gctx.Done()
		healthServer.SetReady(false)
		logger.Info("stopping scheduler, waiting for in-flight run")
		<-scheduler.Stop().Done()
		logger.Info("scheduler stopped")
		return nil
	})

	if workerConfig.RunOnStart {
		g.Go(func() error {
			scheduler.RunNow()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("worker stopped")
	return nil
}

// initTracing installs the tracer provider. TRACE_SAMPLE_RATIO defaults to 1.
func initTracing(logger *slog.Logger) func(context.Context) error {
	l := config.NewLoader(logger, nil)
	ratio := l.Float("TRACE_SAMPLE_RATIO", 1, func(v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("ratio %v outside [0, 1]", v)
		}
		return nil
	})
	return tracing.Init(tracing.Config{ServiceName: "news-notifier-worker", SampleRatio: ratio})
}

// initDatabase opens the pool, retrying while Postgres starts, then applies
// the schema.
func initDatabase(ctx context.Context, logger *slog.Logger) (*sql.DB, error) {
	cfg := retry.DBStartupConfig()
	startup := cfg.Retryable
	cfg.Retryable = func(err error) bool {
		return !errors.Is(err, db.ErrMissingDSN) && startup(err)
	}

	var database *sql.DB
	err := retry.WithBackoff(ctx, cfg, func() error {
		var err error
		database, err = db.Open(ctx, logger)
		if err != nil && !errors.Is(err, db.ErrMissingDSN) {
			logger.Info("waiting for database", slog.String("error", logging.SanitizeError(err)))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.MigrateUp(ctx, database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("database ready")
	return database, nil
}

func setupIngestion(
	ctx context.Context,
	logger *slog.Logger,
	database *sql.DB,
	feeds ingest.FeedClient,
	recorder config.FallbackRecorder,
) (*ingest.Service, error) {
	cfg := ingest.LoadConfig(logger, recorder)
	mapping, err := cfg.Mapping()
	if err != nil {
		return nil, fmt.Errorf("load category mapping: %w", err)
	}

	svc := ingest.NewService(
		postgres.NewSourceRepo(database),
		postgres.NewArticleRepo(database),
		postgres.NewCategoryRepo(database),
		feeds,
		ingest.NewNormalizer(mapping, cfg.DefaultCategory),
	)

	if cfg.BannedFilter {
		banned, err := ingest.LoadBannedList(ctx, postgres.NewBannedKeywordRepo(database))
		if err != nil {
			return nil, fmt.Errorf("load banned keywords: %w", err)
		}
		svc.WithBannedFilter(banned)
		logger.Info("banned keyword filter enabled")
	}

	logger.Info("ingestion configured",
		slog.Int("category_tags", len(mapping)),
		slog.String("default_category", cfg.DefaultCategory),
		slog.Bool("banned_filter", cfg.BannedFilter))
	return svc, nil
}

// setupLease returns the configured run lease, or nil for LEASE_BACKEND=none.
// The returned close func is always non-nil.
func setupLease(
	ctx context.Context,
	logger *slog.Logger,
	cfg *workerPkg.WorkerConfig,
	database *sql.DB,
) (repository.LeaseRepository, func(), error) {
	switch cfg.LeaseBackend {
	case workerPkg.LeaseBackendRedis:
		client, err := lease.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connect redis: %w", err)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close redis client", slog.Any("error", err))
			}
		}
		return lease.NewRedisLease(client), closeFn, nil
	case workerPkg.LeaseBackendNone:
		return nil, func() {}, nil
	default:
		return postgres.NewLeaseRepo(database), func() {}, nil
	}
}
