package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"news-notifier/internal/pkg/config"
)

// Lease backends.
const (
	LeaseBackendPostgres = "postgres"
	LeaseBackendRedis    = "redis"
	LeaseBackendNone     = "none"
)

// WorkerConfig controls scheduling and the worker's HTTP surfaces.
// LoadConfigFromEnv never fails: invalid values fall back to DefaultConfig.
type WorkerConfig struct {
	// CronSchedule is a standard 5-field cron expression.
	CronSchedule string
	// Timezone is the IANA zone the schedule is evaluated in.
	Timezone string
	// RunTimeout bounds a single pipeline run.
	RunTimeout time.Duration
	// RunOnStart triggers one run immediately after startup.
	RunOnStart bool

	HealthPort  int
	MetricsPort int

	// LeaseBackend selects the run lease: postgres, redis or none.
	LeaseBackend  string
	LeaseTTL      time.Duration
	RedisAddr     string
	RedisPassword string
}

func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "*/30 * * * *",
		Timezone:     "UTC",
		RunTimeout:   20 * time.Minute,
		HealthPort:   9091,
		MetricsPort:  9090,
		LeaseBackend: LeaseBackendPostgres,
		LeaseTTL:     30 * time.Minute,
	}
}

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, errors.New("health port and metrics port must differ"))
	}
	if err := config.OneOf(LeaseBackendPostgres, LeaseBackendRedis, LeaseBackendNone)(c.LeaseBackend); err != nil {
		errs = append(errs, fmt.Errorf("lease backend: %w", err))
	}
	if c.LeaseBackend == LeaseBackendRedis && c.RedisAddr == "" {
		errs = append(errs, errors.New("lease backend redis requires REDIS_ADDR"))
	}
	// a lease shorter than a run could expire mid-run
	if c.LeaseTTL < c.RunTimeout {
		errs = append(errs, fmt.Errorf("lease ttl %s is shorter than run timeout %s", c.LeaseTTL, c.RunTimeout))
	}

	return errors.Join(errs...)
}

// LoadConfigFromEnv reads CRON_SCHEDULE, WORKER_TIMEZONE, RUN_TIMEOUT,
// RUN_ON_START, WORKER_HEALTH_PORT, METRICS_PORT, LEASE_BACKEND, LEASE_TTL,
// REDIS_ADDR and REDIS_PASSWORD.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()

	var recorder config.FallbackRecorder
	if metrics != nil {
		recorder = metrics.ConfigMetrics
	}
	l := config.NewLoader(logger, recorder)

	cfg.CronSchedule = l.String("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.Timezone = l.String("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.RunTimeout = l.Duration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 4*time.Hour)
	})
	cfg.RunOnStart = l.Bool("RUN_ON_START", cfg.RunOnStart)
	port := func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }
	cfg.HealthPort = l.Int("WORKER_HEALTH_PORT", cfg.HealthPort, port)
	cfg.MetricsPort = l.Int("METRICS_PORT", cfg.MetricsPort, port)
	cfg.LeaseBackend = l.String("LEASE_BACKEND", cfg.LeaseBackend,
		config.OneOf(LeaseBackendPostgres, LeaseBackendRedis, LeaseBackendNone))
	cfg.LeaseTTL = l.Duration("LEASE_TTL", cfg.LeaseTTL, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 24*time.Hour)
	})
	cfg.RedisAddr = config.LoadEnvString("REDIS_ADDR", "")
	cfg.RedisPassword = config.LoadEnvString("REDIS_PASSWORD", "")

	if cfg.LeaseBackend == LeaseBackendRedis && cfg.RedisAddr == "" {
		logger.Warn("LEASE_BACKEND=redis without REDIS_ADDR, falling back to postgres")
		cfg.LeaseBackend = LeaseBackendPostgres
		if recorder != nil {
			recorder.RecordValidationError("LEASE_BACKEND")
			recorder.RecordFallback("LEASE_BACKEND", "default")
		}
	}
	if cfg.LeaseTTL < cfg.RunTimeout {
		logger.Warn("LEASE_TTL shorter than RUN_TIMEOUT, extending lease",
			slog.Duration("lease_ttl", cfg.LeaseTTL),
			slog.Duration("run_timeout", cfg.RunTimeout))
		cfg.LeaseTTL = cfg.RunTimeout
	}
	if cfg.HealthPort == cfg.MetricsPort {
		logger.Warn("WORKER_HEALTH_PORT equals METRICS_PORT, using defaults for both")
		cfg.HealthPort, cfg.MetricsPort = DefaultConfig().HealthPort, DefaultConfig().MetricsPort
	}

	l.Finish()
	return &cfg
}
