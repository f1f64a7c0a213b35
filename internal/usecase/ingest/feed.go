package ingest

import (
	"context"

	"news-notifier/internal/domain/entity"
)

// FeedClient fetches every configured page of a source and returns the
// concatenated raw items. Any page failure aborts the fetch; there is no
// partial result.
type FeedClient interface {
	Fetch(ctx context.Context, source *entity.Source) ([]FeedItem, error)
}

// FeedItem is a raw item as delivered by a feed, before normalization.
// PublishedAt is the unparsed timestamp text (ISO 8601 for the news API).
type FeedItem struct {
	Title       string
	Snippet     string
	URL         string
	ImageURL    string
	PublishedAt string
	Source      string
	Author      string
	Categories  []string
}
