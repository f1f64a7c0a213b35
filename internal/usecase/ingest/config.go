package ingest

import (
	"log/slog"

	"news-notifier/internal/pkg/config"
)

// Config controls normalization and the optional banned-keyword gate.
type Config struct {
	// CategoryMappingFile is an optional YAML file layered over the built-in tag table.
	CategoryMappingFile string
	// DefaultCategory is assigned when no tag maps to an active category.
	DefaultCategory string
	// BannedFilter drops items whose title or snippet contains a banned keyword.
	BannedFilter bool
}

func DefaultConfig() Config {
	return Config{DefaultCategory: "General"}
}

// LoadConfig reads CATEGORY_MAPPING_FILE, DEFAULT_CATEGORY and INGEST_BANNED_FILTER.
func LoadConfig(logger *slog.Logger, recorder config.FallbackRecorder) Config {
	cfg := DefaultConfig()
	l := config.NewLoader(logger, recorder)

	cfg.CategoryMappingFile = config.LoadEnvString("CATEGORY_MAPPING_FILE", "")
	cfg.DefaultCategory = config.LoadEnvString("DEFAULT_CATEGORY", cfg.DefaultCategory)
	cfg.BannedFilter = l.Bool("INGEST_BANNED_FILTER", cfg.BannedFilter)

	l.Finish()
	return cfg
}

// Mapping returns the tag table, loading the override file when one is set.
func (c Config) Mapping() (CategoryMapping, error) {
	if c.CategoryMappingFile == "" {
		return DefaultCategoryMapping(), nil
	}
	return LoadCategoryMapping(c.CategoryMappingFile)
}
