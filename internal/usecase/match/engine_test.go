package match_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/usecase/match"
)

/* ───────── ヘルパ ───────── */

var (
	tech   = &entity.Category{ID: 1, Name: "Technology", Active: true}
	sports = &entity.Category{ID: 2, Name: "Sports", Active: true}
)

func id(v int64) *int64 { return &v }

func article(id int64, title, body string, cats ...*entity.Category) *entity.Article {
	return &entity.Article{ID: id, Title: title, Body: body, Categories: cats}
}

func sub(user, category int64) entity.CategorySubscription {
	return entity.CategorySubscription{UserID: user, CategoryID: category, IsSubscribed: true}
}

func watch(watchID, user int64, keyword string, category *int64) entity.KeywordWatch {
	return entity.KeywordWatch{ID: watchID, UserID: user, Keyword: keyword, CategoryID: category, IsActive: true}
}

func categoryCandidate(user, art, category int64) entity.NotificationCandidate {
	return entity.NotificationCandidate{UserID: user, ArticleID: art, CategoryID: id(category)}
}

func keywordCandidate(user, art int64, category *int64, watchID int64) entity.NotificationCandidate {
	return entity.NotificationCandidate{UserID: user, ArticleID: art, CategoryID: category, KeywordID: id(watchID)}
}

func assertCandidates(t *testing.T, want []entity.NotificationCandidate, got match.Result) {
	t.Helper()
	if diff := cmp.Diff(want, got.Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

/* ───────── テスト ───────── */

func TestMatch_CategoryOnly(t *testing.T) {
	arts := []*entity.Article{article(10, "Quarterly results", "Nothing special", tech)}
	prefs := match.Preferences{Subscriptions: []entity.CategorySubscription{sub(1, tech.ID)}}

	got := match.NewEngine().Match(arts, prefs)

	assertCandidates(t, []entity.NotificationCandidate{categoryCandidate(1, 10, tech.ID)}, got)
	assert.Equal(t, 1, got.CategoryMatches)
	assert.Zero(t, got.KeywordMatches)
}

func TestMatch_UnsubscribedIgnored(t *testing.T) {
	s := sub(1, tech.ID)
	s.IsSubscribed = false
	arts := []*entity.Article{article(10, "Go", "", tech)}

	got := match.NewEngine().Match(arts, match.Preferences{Subscriptions: []entity.CategorySubscription{s}})

	assert.Empty(t, got.Candidates)
}

func TestMatch_KeywordScopedToArticleCategory(t *testing.T) {
	arts := []*entity.Article{article(10, "Golang generics deep dive", "", tech)}
	prefs := match.Preferences{Watches: []entity.KeywordWatch{watch(5, 1, "golang", id(tech.ID))}}

	got := match.NewEngine().Match(arts, prefs)

	assertCandidates(t, []entity.NotificationCandidate{keywordCandidate(1, 10, id(tech.ID), 5)}, got)
	assert.Equal(t, 1, got.KeywordMatches)
}

func TestMatch_KeywordScopeMismatch(t *testing.T) {
	arts := []*entity.Article{article(10, "Golang at the Olympics", "", sports)}
	prefs := match.Preferences{Watches: []entity.KeywordWatch{watch(5, 1, "golang", id(tech.ID))}}

	got := match.NewEngine().Match(arts, prefs)

	assert.Empty(t, got.Candidates)
}

func TestMatch_UnscopedKeywordUsesArticleCategory(t *testing.T) {
	arts := []*entity.Article{article(10, "Title", "Body mentions Kubernetes", sports, tech)}
	prefs := match.Preferences{Watches: []entity.KeywordWatch{watch(5, 1, "kubernetes", nil)}}

	got := match.NewEngine().Match(arts, prefs)

	assertCandidates(t, []entity.NotificationCandidate{keywordCandidate(1, 10, id(sports.ID), 5)}, got)
}

func TestMatch_UnscopedKeywordNoCategory(t *testing.T) {
	arts := []*entity.Article{article(10, "Kubernetes 2.0", "")}
	prefs := match.Preferences{Watches: []entity.KeywordWatch{watch(5, 1, "kubernetes", nil)}}

	got := match.NewEngine().Match(arts, prefs)

	assertCandidates(t, []entity.NotificationCandidate{keywordCandidate(1, 10, nil, 5)}, got)
}

func TestMatch_KeywordSupersedesCategory(t *testing.T) {
	arts := []*entity.Article{article(10, "Rust vs Go", "", tech)}
	prefs := match.Preferences{
		Subscriptions: []entity.CategorySubscription{sub(1, tech.ID)},
		Watches:       []entity.KeywordWatch{watch(5, 1, "rust", nil)},
	}

	got := match.NewEngine().Match(arts, prefs)

	assertCandidates(t, []entity.NotificationCandidate{keywordCandidate(1, 10, id(tech.ID), 5)}, got)
	assert.Zero(t, got.CategoryMatches)
	assert.Equal(t, 1, got.KeywordMatches)
}

func TestMatch_SubstringAndCaseInsensitive(t *testing.T) {
	arts := []*entity.Article{article(10, "GOLANGERS unite", "", tech)}
	prefs := match.Preferences{Watches: []entity.KeywordWatch{watch(5, 1, "  GoLang ", nil)}}

	got := match.NewEngine().Match(arts, prefs)

	require.Len(t, got.Candidates, 1)
	assert.Equal(t, id(5), got.Candidates[0].KeywordID)
}

func TestMatch_KeywordSpansTitleAndBody(t *testing.T) {
	arts := []*entity.Article{article(10, "open", "source wins", tech)}
	prefs := match.Preferences{Watches: []entity.KeywordWatch{watch(5, 1, "open source", nil)}}

	got := match.NewEngine().Match(arts, prefs)

	assert.Len(t, got.Candidates, 1)
}

func TestMatch_InactiveAndEmptyWatchesIgnored(t *testing.T) {
	inactive := watch(5, 1, "go", nil)
	inactive.IsActive = false
	arts := []*entity.Article{article(10, "go go go", "", tech)}
	prefs := match.Preferences{Watches: []entity.KeywordWatch{inactive, watch(6, 2, "   ", nil)}}

	got := match.NewEngine().Match(arts, prefs)

	assert.Empty(t, got.Candidates)
}

func TestMatch_OneCandidatePerUserArticle(t *testing.T) {
	arts := []*entity.Article{article(10, "Go and Rust", "", tech, sports)}
	prefs := match.Preferences{
		Subscriptions: []entity.CategorySubscription{sub(1, tech.ID), sub(1, sports.ID)},
		Watches:       []entity.KeywordWatch{watch(7, 1, "rust", nil), watch(6, 1, "go", nil)},
	}

	got := match.NewEngine().Match(arts, prefs)

	// the oldest matching watch wins
	assertCandidates(t, []entity.NotificationCandidate{keywordCandidate(1, 10, id(tech.ID), 6)}, got)
}

func TestMatch_MultipleCategoriesFirstWins(t *testing.T) {
	arts := []*entity.Article{article(10, "x", "", sports, tech)}
	prefs := match.Preferences{Subscriptions: []entity.CategorySubscription{sub(1, tech.ID), sub(1, sports.ID)}}

	got := match.NewEngine().Match(arts, prefs)

	assertCandidates(t, []entity.NotificationCandidate{categoryCandidate(1, 10, sports.ID)}, got)
}

func TestMatch_OrderedByArticleThenUser(t *testing.T) {
	arts := []*entity.Article{
		article(20, "b", "", tech),
		article(10, "a", "", tech),
	}
	prefs := match.Preferences{Subscriptions: []entity.CategorySubscription{sub(3, tech.ID), sub(1, tech.ID)}}

	got := match.NewEngine().Match(arts, prefs)

	assertCandidates(t, []entity.NotificationCandidate{
		categoryCandidate(1, 20, tech.ID),
		categoryCandidate(3, 20, tech.ID),
		categoryCandidate(1, 10, tech.ID),
		categoryCandidate(3, 10, tech.ID),
	}, got)
}

func TestMatch_NoArticlesOrPreferences(t *testing.T) {
	e := match.NewEngine()

	assert.Empty(t, e.Match(nil, match.Preferences{Subscriptions: []entity.CategorySubscription{sub(1, 1)}}).Candidates)
	assert.Empty(t, e.Match([]*entity.Article{article(1, "x", "", tech)}, match.Preferences{}).Candidates)
}

func TestMatch_CandidatesDoNotAlias(t *testing.T) {
	arts := []*entity.Article{article(10, "x", "", tech), article(11, "y", "", tech)}
	prefs := match.Preferences{Subscriptions: []entity.CategorySubscription{sub(1, tech.ID)}}

	got := match.NewEngine().Match(arts, prefs)
	require.Len(t, got.Candidates, 2)
	*got.Candidates[0].CategoryID = 99

	assert.Equal(t, tech.ID, *got.Candidates[1].CategoryID)
}

type stubPreferenceRepo struct {
	subs    []entity.CategorySubscription
	watches []entity.KeywordWatch
	subsErr error
}

func (s *stubPreferenceRepo) ListActiveSubscriptions(_ context.Context) ([]entity.CategorySubscription, error) {
	return s.subs, s.subsErr
}

func (s *stubPreferenceRepo) ListActiveKeywordWatches(_ context.Context) ([]entity.KeywordWatch, error) {
	return s.watches, nil
}

func (s *stubPreferenceRepo) GetRecipients(_ context.Context, _ []int64) (map[int64]entity.Recipient, error) {
	return nil, nil
}

func TestLoadPreferences(t *testing.T) {
	repo := &stubPreferenceRepo{
		subs:    []entity.CategorySubscription{sub(1, 1)},
		watches: []entity.KeywordWatch{watch(1, 1, "go", nil)},
	}

	prefs, err := match.LoadPreferences(context.Background(), repo)
	require.NoError(t, err)
	assert.Len(t, prefs.Subscriptions, 1)
	assert.Len(t, prefs.Watches, 1)

	repo.subsErr = errors.New("db down")
	_, err = match.LoadPreferences(context.Background(), repo)
	assert.Error(t, err)
}
