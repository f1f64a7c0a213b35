package feedclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/resilience/circuitbreaker"
	"news-notifier/internal/usecase/ingest"
)

// RSSClient reads RSS, Atom and JSON Feed documents. A feed is a single
// page, so Config.Pages does not apply.
type RSSClient struct {
	client         *http.Client
	userAgent      string
	circuitBreaker *circuitbreaker.CircuitBreaker
}

func NewRSSClient(client *http.Client, cfg Config) *RSSClient {
	return &RSSClient{
		client:         client,
		userAgent:      cfg.UserAgent,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
	}
}

func (f *RSSClient) Fetch(ctx context.Context, source *entity.Source) ([]ingest.FeedItem, error) {
	items, err := circuitbreaker.Do(f.circuitBreaker, func() ([]ingest.FeedItem, error) {
		return f.doFetch(ctx, source)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			slog.Warn("feed fetch circuit breaker open, request rejected",
				slog.String("service", "feed-fetch"),
				slog.String("source", source.Name),
				slog.String("state", f.circuitBreaker.State().String()))
		}
		return nil, fmt.Errorf("%w: %w", ErrPageFetch, err)
	}
	return items, nil
}

func (f *RSSClient) doFetch(ctx context.Context, source *entity.Source) ([]ingest.FeedItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = f.userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(source.BaseURL, ctx)
	if err != nil {
		return nil, err
	}

	label := source.Name
	if label == "" {
		label = feed.Title
	}

	items := make([]ingest.FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		// 公開日時がない記事は正規化時にスキップされる
		published := it.Published
		if it.PublishedParsed != nil {
			published = it.PublishedParsed.UTC().Format(time.RFC3339)
		} else if published == "" && it.UpdatedParsed != nil {
			published = it.UpdatedParsed.UTC().Format(time.RFC3339)
		}

		snippet := it.Description
		if snippet == "" {
			snippet = it.Content
		}

		items = append(items, ingest.FeedItem{
			Title:       it.Title,
			Snippet:     snippet,
			URL:         it.Link,
			ImageURL:    imageURL(it),
			PublishedAt: published,
			Source:      label,
			Author:      authorName(it),
			Categories:  it.Categories,
		})
	}
	return items, nil
}

func imageURL(it *gofeed.Item) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

func authorName(it *gofeed.Item) string {
	if it.Author != nil && it.Author.Name != "" {
		return it.Author.Name
	}
	for _, a := range it.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

func (f *RSSClient) Breaker() *circuitbreaker.CircuitBreaker { return f.circuitBreaker }
