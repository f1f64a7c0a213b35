// Package notify turns stored notifications into one digest email per user.
package notify

import "context"

// Email is a rendered message for a single recipient.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers a single email. Implementations live in internal/infra/mailer.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}
