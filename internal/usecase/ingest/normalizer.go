package ingest

import (
	"fmt"
	"strings"
	"time"

	"news-notifier/internal/domain/entity"
)

// timestampLayouts are tried in order when parsing FeedItem.PublishedAt.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// Normalizer converts raw feed items to articles. It does not touch storage;
// deduplication against stored URLs happens in the Service.
type Normalizer struct {
	mapping         CategoryMapping
	defaultCategory string
}

func NewNormalizer(mapping CategoryMapping, defaultCategory string) *Normalizer {
	if mapping == nil {
		mapping = DefaultCategoryMapping()
	}
	return &Normalizer{mapping: mapping, defaultCategory: defaultCategory}
}

// CanonicalURL returns the stored form of a feed URL.
func CanonicalURL(raw string) string {
	return Truncate(strings.TrimSpace(raw), MaxURLLength)
}

// Normalize validates item and maps it to an unsaved article.
// A missing title, URL or publish timestamp yields errMalformedItem.
func (n *Normalizer) Normalize(item FeedItem, active CategoryIndex) (*entity.Article, error) {
	title := plainText(item.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: missing title", errMalformedItem)
	}
	url := CanonicalURL(item.URL)
	if url == "" {
		return nil, fmt.Errorf("%w: missing url", errMalformedItem)
	}
	if err := entity.ValidateURL(url); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedItem, err)
	}
	if strings.TrimSpace(item.PublishedAt) == "" {
		return nil, fmt.Errorf("%w: missing published_at", errMalformedItem)
	}
	publishedAt, err := parseTimestamp(item.PublishedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedItem, err)
	}

	return &entity.Article{
		URL:         url,
		Title:       Truncate(title, MaxTitleLength),
		Body:        Truncate(plainText(item.Snippet), MaxBodyLength),
		Author:      Truncate(strings.TrimSpace(item.Author), MaxAuthorLength),
		SourceName:  Truncate(strings.TrimSpace(item.Source), MaxSourceLength),
		ImageURL:    strings.TrimSpace(item.ImageURL),
		PublishedAt: publishedAt,
		Categories:  n.mapping.Resolve(item.Categories, active, n.defaultCategory),
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable published_at %q", raw)
}
