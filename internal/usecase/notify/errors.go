package notify

import "errors"

var (
	// ErrNoRecipient marks users without a usable email address.
	ErrNoRecipient = errors.New("no email recipient for user")

	// ErrEmptyDigest is returned when a digest has no entries to render.
	ErrEmptyDigest = errors.New("digest has no entries")

	// ErrDeliveryDisabled is returned by mailers that drop email instead of
	// delivering it. Notifications stay unemailed.
	ErrDeliveryDisabled = errors.New("email delivery disabled")
)
