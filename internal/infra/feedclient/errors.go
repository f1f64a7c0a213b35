package feedclient

import "errors"

var (
	// ErrPageFetch wraps the failure of a single page request.
	ErrPageFetch = errors.New("feed page fetch failed")

	// ErrMissingAPIKey is returned when the source references an API key
	// variable that is unset.
	ErrMissingAPIKey = errors.New("feed api key not configured")

	// ErrUnsupportedSourceType is returned by the factory for unknown source types.
	ErrUnsupportedSourceType = errors.New("unsupported source type")
)
