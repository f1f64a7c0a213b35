package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"news-notifier/internal/pkg/config"
)

// ErrMissingDSN is returned by Open when DATABASE_URL is unset.
var ErrMissingDSN = errors.New("DATABASE_URL not set")

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultConnectionConfig returns the pool settings used by the worker.
// The pipeline runs one stage at a time, so the pool is small.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Open creates a connection pool for DATABASE_URL and verifies it with a ping.
func Open(ctx context.Context, logger *slog.Logger) (*sql.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := getConnectionConfigFromEnv(logger)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// getConnectionConfigFromEnv reads pool settings from the environment.
// Invalid values fall back to the defaults with a warning.
func getConnectionConfigFromEnv(logger *slog.Logger) ConnectionConfig {
	cfg := DefaultConnectionConfig()
	l := config.NewLoader(logger, nil)
	poolSize := func(v int) error { return config.ValidateIntRange(v, 1, 1000) }

	cfg.MaxOpenConns = l.Int("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns, poolSize)
	cfg.MaxIdleConns = l.Int("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns, poolSize)
	cfg.ConnMaxLifetime = l.Duration("DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime, config.ValidatePositiveDuration)
	cfg.ConnMaxIdleTime = l.Duration("DB_CONN_MAX_IDLE_TIME", cfg.ConnMaxIdleTime, config.ValidatePositiveDuration)
	cfg.PingTimeout = l.Duration("DB_PING_TIMEOUT", cfg.PingTimeout, config.ValidatePositiveDuration)
	l.Finish()

	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		logger.Warn("DB_MAX_IDLE_CONNS exceeds DB_MAX_OPEN_CONNS, clamping",
			slog.Int("max_idle_conns", cfg.MaxIdleConns),
			slog.Int("max_open_conns", cfg.MaxOpenConns))
		cfg.MaxIdleConns = cfg.MaxOpenConns
	}
	return cfg
}
