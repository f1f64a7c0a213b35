package feedclient_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/infra/feedclient"
	"news-notifier/internal/resilience/retry"
)

func testConfig() feedclient.Config {
	cfg := feedclient.DefaultConfig()
	cfg.Pages = 3
	cfg.PageSize = 2
	cfg.PageDelay = 0
	cfg.HTTPTimeout = 5 * time.Second
	return cfg
}

func pageJSON(page int) string {
	return fmt.Sprintf(`{"meta":{"found":6},"data":[
  {"uuid":"a%[1]d","title":"Item %[1]d-1","description":"desc","snippet":"snip","url":"https://news.example.com/%[1]d/1","image_url":"https://img.example.com/%[1]d.jpg","published_at":"2024-05-01T12:00:00.000000Z","source":"wire.example.com","categories":["tech","science"]},
  {"uuid":"b%[1]d","title":"Item %[1]d-2","description":"","snippet":"only snippet","url":"https://news.example.com/%[1]d/2","published_at":"2024-05-01T13:00:00.000000Z","source":"","categories":[]}
]}`, page)
}

func TestNewsAPIClient_Fetch_ConcatenatesPages(t *testing.T) {
	t.Setenv("TEST_NEWS_TOKEN", "secret-token")

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "secret-token", r.URL.Query().Get("api_token"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pageJSON(page)))
	}))
	defer server.Close()

	client := feedclient.NewNewsAPIClient(server.Client(), testConfig())
	items, err := client.Fetch(context.Background(), &entity.Source{
		Name: "TheNews", BaseURL: server.URL, APIKeyRef: "TEST_NEWS_TOKEN",
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), requests.Load())
	require.Len(t, items, 6)
	assert.Equal(t, "Item 1-1", items[0].Title)
	assert.Equal(t, "desc", items[0].Snippet)
	assert.Equal(t, "wire.example.com", items[0].Source)
	assert.Equal(t, []string{"tech", "science"}, items[0].Categories)
	assert.Equal(t, "https://img.example.com/1.jpg", items[0].ImageURL)
	assert.Equal(t, "2024-05-01T12:00:00.000000Z", items[0].PublishedAt)
	// description が空なら snippet を使う
	assert.Equal(t, "only snippet", items[1].Snippet)
	// source が空ならソース名を使う
	assert.Equal(t, "TheNews", items[1].Source)
	assert.Equal(t, "Item 3-2", items[5].Title)
}

func TestNewsAPIClient_Fetch_PageFailureAborts(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n == 2 {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(pageJSON(int(n))))
	}))
	defer server.Close()

	client := feedclient.NewNewsAPIClient(server.Client(), testConfig())
	items, err := client.Fetch(context.Background(), &entity.Source{BaseURL: server.URL})

	require.Error(t, err)
	assert.Nil(t, items, "no partial result on page failure")
	assert.True(t, errors.Is(err, feedclient.ErrPageFetch))
	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, int32(2), requests.Load(), "no retry after a failed page")
}

func TestNewsAPIClient_Fetch_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [`))
	}))
	defer server.Close()

	client := feedclient.NewNewsAPIClient(server.Client(), testConfig())
	_, err := client.Fetch(context.Background(), &entity.Source{BaseURL: server.URL})

	assert.ErrorIs(t, err, feedclient.ErrPageFetch)
}

func TestNewsAPIClient_Fetch_StopsOnEmptyPage(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			_, _ = w.Write([]byte(pageJSON(1)))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := feedclient.NewNewsAPIClient(server.Client(), testConfig())
	items, err := client.Fetch(context.Background(), &entity.Source{BaseURL: server.URL})

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int32(2), requests.Load())
}

func TestNewsAPIClient_Fetch_MissingAPIKey(t *testing.T) {
	client := feedclient.NewNewsAPIClient(http.DefaultClient, testConfig())

	_, err := client.Fetch(context.Background(), &entity.Source{
		BaseURL: "http://127.0.0.1:1", APIKeyRef: "TEST_NEWS_TOKEN_UNSET_FOR_SURE",
	})

	assert.ErrorIs(t, err, feedclient.ErrMissingAPIKey)
}

func TestNewsAPIClient_Fetch_PageDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(pageJSON(page)))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.PageDelay = 50 * time.Millisecond
	client := feedclient.NewNewsAPIClient(server.Client(), cfg)

	start := time.Now()
	_, err := client.Fetch(context.Background(), &entity.Source{BaseURL: server.URL})
	require.NoError(t, err)

	// 3ページ → 2回の待機
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestNewsAPIClient_Fetch_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pageJSON(1)))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.PageDelay = time.Hour
	client := feedclient.NewNewsAPIClient(server.Client(), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Fetch(ctx, &entity.Source{BaseURL: server.URL})

	assert.ErrorIs(t, err, feedclient.ErrPageFetch)
}
