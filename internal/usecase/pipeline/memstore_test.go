package pipeline_test

import (
	"context"
	"sync"
	"time"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/usecase/ingest"
	"news-notifier/internal/usecase/notify"
)

/* ───────── インメモリストア ───────── */

// memStore backs every repository the pipeline uses. Uniqueness of article
// URLs and (user, article) notifications mirrors the database constraints.
type memStore struct {
	mu sync.Mutex

	source     *entity.Source
	lastError  *string
	recorded   int
	categories []*entity.Category

	articles      []*entity.Article
	nextArticleID int64

	subs       []entity.CategorySubscription
	watches    []entity.KeywordWatch
	recipients map[int64]entity.Recipient

	notifications      []*entity.Notification
	nextNotificationID int64
	createErr          error

	listUnprocessedCalls int

	leaseHolder string
}

func newMemStore() *memStore {
	return &memStore{
		source: &entity.Source{
			ID: 1, Name: "newsapi", SourceType: entity.SourceTypeNewsAPI,
			BaseURL: "https://api.example.com/v1/news/all", APIKeyRef: "NEWS_API_KEY", Active: true,
		},
		categories: []*entity.Category{
			{ID: 1, Name: "Technology", Slug: "technology", Active: true},
			{ID: 2, Name: "Sports", Slug: "sports", Active: true},
			{ID: 3, Name: "General", Slug: "general", Active: true},
		},
		recipients: map[int64]entity.Recipient{},
	}
}

// SourceRepository
func (m *memStore) GetActive(_ context.Context) (*entity.Source, error) {
	return m.source, nil
}

func (m *memStore) RecordFetchResult(_ context.Context, _ int64, _ time.Time, lastErr *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded++
	m.lastError = lastErr
	return nil
}

// CategoryRepository
func (m *memStore) ListActive(_ context.Context) ([]*entity.Category, error) {
	return m.categories, nil
}

// PreferenceRepository
func (m *memStore) ListActiveSubscriptions(_ context.Context) ([]entity.CategorySubscription, error) {
	return m.subs, nil
}

func (m *memStore) ListActiveKeywordWatches(_ context.Context) ([]entity.KeywordWatch, error) {
	return m.watches, nil
}

func (m *memStore) GetRecipients(_ context.Context, userIDs []int64) (map[int64]entity.Recipient, error) {
	out := make(map[int64]entity.Recipient)
	for _, id := range userIDs {
		if r, ok := m.recipients[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

// LeaseRepository
func (m *memStore) TryAcquire(_ context.Context, _, holder string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.leaseHolder != "" && m.leaseHolder != holder {
		return false, nil
	}
	m.leaseHolder = holder
	return true, nil
}

func (m *memStore) Release(_ context.Context, _, holder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.leaseHolder == holder {
		m.leaseHolder = ""
	}
	return nil
}

type articleRepo struct{ *memStore }

func (r articleRepo) ExistsByURLBatch(_ context.Context, urls []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(urls))
	for _, u := range urls {
		for _, a := range r.articles {
			if a.URL == u {
				out[u] = true
			}
		}
	}
	return out, nil
}

func (r articleRepo) Create(_ context.Context, a *entity.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.articles {
		if existing.URL == a.URL {
			return entity.ErrDuplicate
		}
	}
	r.nextArticleID++
	a.ID = r.nextArticleID
	a.CreatedAt = time.Now()
	a.Active = true
	r.articles = append(r.articles, a)
	return nil
}

func (r articleRepo) ListUnprocessed(_ context.Context) ([]*entity.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listUnprocessedCalls++
	var out []*entity.Article
	for _, a := range r.articles {
		if !a.Processed {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r articleRepo) MarkProcessed(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markProcessed(ids)
	return nil
}

func (m *memStore) markProcessed(ids []int64) {
	for _, a := range m.articles {
		for _, id := range ids {
			if a.ID == id {
				a.Processed = true
			}
		}
	}
}

type notificationRepo struct{ *memStore }

func (r notificationRepo) CreateAndMarkProcessed(_ context.Context, candidates []entity.NotificationCandidate, articleIDs []int64) ([]*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, c := range candidates {
		for _, n := range r.notifications {
			if n.UserID == c.UserID && n.ArticleID != nil && *n.ArticleID == c.ArticleID {
				return nil, entity.ErrDuplicate
			}
		}
	}
	out := make([]*entity.Notification, 0, len(candidates))
	for _, c := range candidates {
		r.nextNotificationID++
		articleID := c.ArticleID
		n := &entity.Notification{
			ID:         r.nextNotificationID,
			UserID:     c.UserID,
			ArticleID:  &articleID,
			CategoryID: c.CategoryID,
			KeywordID:  c.KeywordID,
			CreatedAt:  time.Now(),
		}
		r.notifications = append(r.notifications, n)
		out = append(out, n)
	}
	r.markProcessed(articleIDs)
	return out, nil
}

func (r notificationRepo) MarkEmailed(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		for _, id := range ids {
			if n.ID == id {
				n.IsEmailed = true
			}
		}
	}
	return nil
}

/* ───────── 外部境界のスタブ ───────── */

type stubFeed struct {
	items []ingest.FeedItem
	err   error
}

func (f *stubFeed) Fetch(_ context.Context, _ *entity.Source) ([]ingest.FeedItem, error) {
	return f.items, f.err
}

type stubMailer struct {
	mu      sync.Mutex
	sent    []notify.Email
	failFor map[string]error
}

func (m *stubMailer) Send(_ context.Context, email notify.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[email.To]; err != nil {
		return err
	}
	m.sent = append(m.sent, email)
	return nil
}
