package mailer

import (
	"log/slog"
	"time"

	"news-notifier/internal/pkg/config"
)

// Config holds SMTP relay settings. An empty Host selects the no-op mailer.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// StartTLS upgrades the connection before authenticating.
	StartTLS bool
	// RatePerSecond paces outgoing messages.
	RatePerSecond float64
	Timeout       time.Duration
	// MaxAttempts bounds delivery attempts for transient (4xx) replies.
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{
		Port:          587,
		FromName:      "News Notifier",
		StartTLS:      true,
		RatePerSecond: 5,
		Timeout:       30 * time.Second,
		MaxAttempts:   2,
	}
}

// Enabled reports whether an SMTP relay is configured.
func (c Config) Enabled() bool { return c.Host != "" }

// LoadConfig reads SMTP_* and MAIL_* variables.
func LoadConfig(logger *slog.Logger, recorder config.FallbackRecorder) Config {
	cfg := DefaultConfig()
	l := config.NewLoader(logger, recorder)

	cfg.Host = config.LoadEnvString("SMTP_HOST", "")
	cfg.Port = l.Int("SMTP_PORT", cfg.Port, func(v int) error { return config.ValidateIntRange(v, 1, 65535) })
	cfg.Username = config.LoadEnvString("SMTP_USERNAME", "")
	cfg.Password = config.LoadEnvString("SMTP_PASSWORD", "")
	cfg.From = config.LoadEnvString("SMTP_FROM", "")
	cfg.FromName = config.LoadEnvString("SMTP_FROM_NAME", cfg.FromName)
	cfg.StartTLS = l.Bool("SMTP_STARTTLS", cfg.StartTLS)
	cfg.RatePerSecond = l.Float("MAIL_RATE_PER_SECOND", cfg.RatePerSecond, config.ValidatePositiveFloat)
	cfg.Timeout = l.Duration("SMTP_TIMEOUT", cfg.Timeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 5*time.Minute)
	})
	cfg.MaxAttempts = l.Int("SMTP_MAX_ATTEMPTS", cfg.MaxAttempts, func(v int) error { return config.ValidateIntRange(v, 1, 5) })

	l.Finish()

	if cfg.Enabled() && cfg.From == "" {
		logger.Warn("SMTP_FROM is empty, falling back to SMTP_USERNAME")
		cfg.From = cfg.Username
	}
	return cfg
}
