package feedclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"golang.org/x/time/rate"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/resilience/circuitbreaker"
	"news-notifier/internal/resilience/retry"
	"news-notifier/internal/usecase/ingest"
)

// maxErrorBody bounds how much of an error response ends up in the error text.
const maxErrorBody = 512

// NewsAPIClient reads a paginated JSON news API of the form
//
//	GET {base}?api_token=…&limit={size}&page={n}[&language=…]
//	{"data":[{"title":…,"snippet":…,"url":…,"published_at":…,"categories":[…]}]}
type NewsAPIClient struct {
	client         *http.Client
	cfg            Config
	circuitBreaker *circuitbreaker.CircuitBreaker
	lookupKey      func(string) string
}

func NewNewsAPIClient(client *http.Client, cfg Config) *NewsAPIClient {
	return &NewsAPIClient{
		client:         client,
		cfg:            cfg,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		lookupKey:      os.Getenv,
	}
}

type newsAPIResponse struct {
	Data []newsAPIItem `json:"data"`
}

type newsAPIItem struct {
	UUID        string   `json:"uuid"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Snippet     string   `json:"snippet"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url"`
	PublishedAt string   `json:"published_at"`
	Source      string   `json:"source"`
	Author      string   `json:"author"`
	Categories  []string `json:"categories"`
}

// Fetch requests cfg.Pages pages in order, waiting cfg.PageDelay between them.
// An empty page ends the fetch early.
func (c *NewsAPIClient) Fetch(ctx context.Context, source *entity.Source) ([]ingest.FeedItem, error) {
	token := ""
	if source.APIKeyRef != "" {
		token = c.lookupKey(source.APIKeyRef)
		if token == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, source.APIKeyRef)
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if c.cfg.PageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(c.cfg.PageDelay), 1)
	}

	items := make([]ingest.FeedItem, 0, c.cfg.Pages*c.cfg.PageSize)
	for page := 1; page <= c.cfg.Pages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrPageFetch, page, err)
		}

		pageItems, err := circuitbreaker.Do(c.circuitBreaker, func() ([]newsAPIItem, error) {
			return c.fetchPage(ctx, source.BaseURL, token, page)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrPageFetch, page, err)
		}
		if len(pageItems) == 0 {
			break
		}
		for _, it := range pageItems {
			items = append(items, toFeedItem(it, source.Name))
		}
	}
	return items, nil
}

func (c *NewsAPIClient) fetchPage(ctx context.Context, baseURL, token string, page int) ([]newsAPIItem, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	if token != "" {
		q.Set("api_token", token)
	}
	q.Set("limit", strconv.Itoa(c.cfg.PageSize))
	q.Set("page", strconv.Itoa(page))
	if c.cfg.Language != "" {
		q.Set("language", c.cfg.Language)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload.Data, nil
}

func toFeedItem(it newsAPIItem, sourceName string) ingest.FeedItem {
	snippet := it.Description
	if snippet == "" {
		snippet = it.Snippet
	}
	source := it.Source
	if source == "" {
		source = sourceName
	}
	return ingest.FeedItem{
		Title:       it.Title,
		Snippet:     snippet,
		URL:         it.URL,
		ImageURL:    it.ImageURL,
		PublishedAt: it.PublishedAt,
		Source:      source,
		Author:      it.Author,
		Categories:  it.Categories,
	}
}

func (c *NewsAPIClient) Breaker() *circuitbreaker.CircuitBreaker { return c.circuitBreaker }
