package pipeline

import "errors"

// ErrLeaseHeld is returned when another worker holds the run lease.
var ErrLeaseHeld = errors.New("pipeline lease held by another worker")
