package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"news-notifier/internal/resilience/circuitbreaker"
	"news-notifier/internal/resilience/retry"
	"news-notifier/internal/usecase/notify"
)

// SMTPMailer sends each email in its own SMTP session.
type SMTPMailer struct {
	cfg         Config
	from        mail.Address
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retry       retry.Config
	now         func() time.Time
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = max(cfg.MaxAttempts, 1)
	retryCfg.InitialDelay = 2 * time.Second
	retryCfg.Retryable = isTransient

	breakerCfg := circuitbreaker.SMTPConfig()
	breakerCfg.IsSuccessful = relayHealthy

	return &SMTPMailer{
		cfg:         cfg,
		from:        mail.Address{Name: cfg.FromName, Address: cfg.From},
		rateLimiter: NewRateLimiter(cfg.RatePerSecond, 1),
		breaker:     circuitbreaker.New(breakerCfg),
		retry:       retryCfg,
		now:         time.Now,
	}
}

// Send delivers email, retrying transient 4xx replies. Permanent failures and
// an open breaker are returned immediately.
func (m *SMTPMailer) Send(ctx context.Context, email notify.Email) error {
	if email.To == "" || m.from.Address == "" {
		return fmt.Errorf("%w: missing sender or recipient", ErrInvalidEmail)
	}
	if _, err := mail.ParseAddress(email.To); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}

	msg, err := buildMessage(m.from, email, m.now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	if err := m.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	err = retry.WithBackoff(ctx, m.retry, func() error {
		_, err := circuitbreaker.Do(m.breaker, func() (struct{}, error) {
			return struct{}{}, m.deliver(ctx, email.To, msg)
		})
		return err
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			slog.Warn("SMTP circuit breaker open, skipping email",
				slog.String("breaker", m.breaker.Name()))
		}
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(m.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if m.cfg.StartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return errors.New("SMTP server does not support STARTTLS")
		}
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("start TLS: %w", err)
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication: %w", err)
		}
	}

	if err := client.Mail(m.from.Address); err != nil {
		return asRecipientError(fmt.Errorf("set sender: %w", err))
	}
	if err := client.Rcpt(to); err != nil {
		return asRecipientError(fmt.Errorf("set recipient: %w", err))
	}

	w, err := client.Data()
	if err != nil {
		return asRecipientError(fmt.Errorf("start message: %w", err))
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return asRecipientError(fmt.Errorf("close message: %w", err))
	}

	// the message is accepted at this point
	_ = client.Quit()
	return nil
}

// Breakers exposes the SMTP circuit breaker for health reporting.
func (m *SMTPMailer) Breakers() map[string]*circuitbreaker.CircuitBreaker {
	return map[string]*circuitbreaker.CircuitBreaker{"smtp": m.breaker}
}
