package mailer

import (
	"errors"
	"net/textproto"

	"news-notifier/internal/resilience/circuitbreaker"
	"news-notifier/internal/resilience/retry"
)

// ErrInvalidEmail is returned for messages without a recipient or sender.
var ErrInvalidEmail = errors.New("invalid email")

// recipientError is a reply rejecting this message or recipient. The relay
// itself answered, so it says nothing about the relay's health.
type recipientError struct{ err error }

func (e *recipientError) Error() string { return e.err.Error() }
func (e *recipientError) Unwrap() error { return e.err }

// asRecipientError tags SMTP replies to MAIL, RCPT and DATA. 421 means the
// relay is shutting the session down and stays a relay failure.
func asRecipientError(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code != 421 {
		return &recipientError{err: err}
	}
	return err
}

// relayHealthy counts recipient-level rejections as breaker successes so
// that dead mailboxes cannot open the breaker for everyone else.
func relayHealthy(err error) bool {
	if err == nil {
		return true
	}
	var rcptErr *recipientError
	return errors.As(err, &rcptErr)
}

// isTransient reports whether a delivery attempt may succeed if repeated:
// SMTP 4xx replies and transient network failures.
func isTransient(err error) bool {
	if err == nil || circuitbreaker.IsOpenError(err) {
		return false
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code >= 400 && protoErr.Code < 500
	}
	return retry.IsRetryable(err)
}
