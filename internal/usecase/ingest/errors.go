package ingest

import "errors"

var (
	// ErrNoActiveSource is returned when no feed source is marked active.
	ErrNoActiveSource = errors.New("no active feed source")

	// ErrFeedFetchFailed wraps a Feed Client failure; the run is aborted.
	ErrFeedFetchFailed = errors.New("failed to fetch feed from source")

	// errMalformedItem marks items skipped for a missing or unparsable field.
	errMalformedItem = errors.New("malformed feed item")

	// errBannedContent marks items rejected by the banned-keyword gate.
	errBannedContent = errors.New("item contains banned keyword")
)
