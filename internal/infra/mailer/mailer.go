// Package mailer delivers digest emails over SMTP.
//
// New returns a no-op mailer when no relay is configured, so the pipeline
// runs unchanged in development.
package mailer

import (
	"log/slog"

	"news-notifier/internal/usecase/notify"
)

// New selects the SMTP mailer or the no-op mailer from cfg.
func New(cfg Config, logger *slog.Logger) notify.Mailer {
	if !cfg.Enabled() {
		logger.Info("SMTP_HOST not set, email delivery disabled")
		return NewNoOpMailer()
	}
	logger.Info("SMTP mailer enabled",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.Bool("starttls", cfg.StartTLS),
		slog.Float64("rate_per_second", cfg.RatePerSecond))
	return NewSMTPMailer(cfg)
}
