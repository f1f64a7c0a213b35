package feedclient

import (
	"log/slog"
	"time"

	"news-notifier/internal/pkg/config"
)

// Config controls how feed pages are requested.
type Config struct {
	// Pages is the fixed number of pages fetched per run.
	Pages int
	// PageSize is the number of items requested per page.
	PageSize int
	// PageDelay separates consecutive page requests.
	PageDelay time.Duration
	// HTTPTimeout bounds a single page request.
	HTTPTimeout time.Duration
	// Language filters news API results; empty means no filter.
	Language  string
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		Pages:       3,
		PageSize:    25,
		PageDelay:   1 * time.Second,
		HTTPTimeout: 30 * time.Second,
		UserAgent:   "NewsNotifierBot/1.0",
	}
}

// LoadConfig reads FEED_* variables. Invalid values fall back to defaults.
func LoadConfig(logger *slog.Logger, recorder config.FallbackRecorder) Config {
	cfg := DefaultConfig()
	l := config.NewLoader(logger, recorder)

	cfg.Pages = l.Int("FEED_PAGES", cfg.Pages, func(v int) error {
		return config.ValidateIntRange(v, 1, 20)
	})
	cfg.PageSize = l.Int("FEED_PAGE_SIZE", cfg.PageSize, func(v int) error {
		return config.ValidateIntRange(v, 1, 100)
	})
	cfg.PageDelay = l.Duration("FEED_PAGE_DELAY", cfg.PageDelay, func(d time.Duration) error {
		return config.ValidateDuration(d, 0, time.Minute)
	})
	cfg.HTTPTimeout = l.Duration("FEED_HTTP_TIMEOUT", cfg.HTTPTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 5*time.Minute)
	})
	cfg.Language = config.LoadEnvString("FEED_LANGUAGE", cfg.Language)
	cfg.UserAgent = config.LoadEnvString("FEED_USER_AGENT", cfg.UserAgent)

	l.Finish()
	return cfg
}
