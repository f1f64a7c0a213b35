package feedclient

import (
	"context"
	"fmt"
	"net/http"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/resilience/circuitbreaker"
	"news-notifier/internal/usecase/ingest"
)

// Factory dispatches a fetch to the client matching the source type.
// An empty source type is treated as the news API.
type Factory struct {
	clients map[string]ingest.FeedClient
}

// NewFactory builds one client per supported source type sharing an HTTP client.
func NewFactory(cfg Config) *Factory {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	return &Factory{
		clients: map[string]ingest.FeedClient{
			entity.SourceTypeNewsAPI: NewNewsAPIClient(httpClient, cfg),
			entity.SourceTypeRSS:     NewRSSClient(httpClient, cfg),
		},
	}
}

func (f *Factory) Fetch(ctx context.Context, source *entity.Source) ([]ingest.FeedItem, error) {
	sourceType := source.SourceType
	if sourceType == "" {
		sourceType = entity.SourceTypeNewsAPI
	}
	client, ok := f.clients[sourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSourceType, source.SourceType)
	}
	return client.Fetch(ctx, source)
}

// Breakers returns each client's circuit breaker keyed by "feed_<source type>".
func (f *Factory) Breakers() map[string]*circuitbreaker.CircuitBreaker {
	out := make(map[string]*circuitbreaker.CircuitBreaker, len(f.clients))
	for sourceType, client := range f.clients {
		if b, ok := client.(interface {
			Breaker() *circuitbreaker.CircuitBreaker
		}); ok {
			out["feed_"+sourceType] = b.Breaker()
		}
	}
	return out
}
