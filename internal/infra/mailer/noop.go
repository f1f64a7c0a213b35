package mailer

import (
	"context"
	"log/slog"

	"news-notifier/internal/usecase/notify"
)

// NoOpMailer drops every email and reports notify.ErrDeliveryDisabled so
// the digest is not flagged as emailed.
type NoOpMailer struct{}

func NewNoOpMailer() *NoOpMailer {
	return &NoOpMailer{}
}

func (n *NoOpMailer) Send(ctx context.Context, email notify.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slog.Debug("email delivery disabled, dropping digest", slog.String("subject", email.Subject))
	return notify.ErrDeliveryDisabled
}
