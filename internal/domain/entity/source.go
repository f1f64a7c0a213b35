package entity

import (
	"errors"
	"fmt"
	"time"
)

// Source types understood by the feed client factory.
const (
	SourceTypeNewsAPI = "newsapi"
	SourceTypeRSS     = "rss"
)

// Source is the configuration of an external news feed together with the
// outcome of its most recent fetch.
type Source struct {
	ID         int64
	Name       string
	SourceType string
	BaseURL    string
	// APIKeyRef names the environment variable holding the API key.
	APIKeyRef   string
	Active      bool
	LastFetchAt *time.Time
	LastError   *string
}

// Validate validates the Source entity fields.
// An empty SourceType is treated as newsapi.
func (s *Source) Validate() error {
	if s.SourceType == "" {
		s.SourceType = SourceTypeNewsAPI
	}
	switch s.SourceType {
	case SourceTypeNewsAPI, SourceTypeRSS:
	default:
		return fmt.Errorf("invalid source_type: %s (must be %s or %s)", s.SourceType, SourceTypeNewsAPI, SourceTypeRSS)
	}
	if s.Name == "" {
		return errors.New("source name is required")
	}
	return ValidateURL(s.BaseURL)
}
