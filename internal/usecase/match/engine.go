// Package match decides which users should be notified about which articles.
package match

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"news-notifier/internal/domain/entity"
	"news-notifier/internal/repository"
)

// Preferences is a read-only snapshot of every user's matching rules.
type Preferences struct {
	Subscriptions []entity.CategorySubscription
	Watches       []entity.KeywordWatch
}

// LoadPreferences snapshots active subscriptions and keyword watches.
func LoadPreferences(ctx context.Context, repo repository.PreferenceRepository) (Preferences, error) {
	subs, err := repo.ListActiveSubscriptions(ctx)
	if err != nil {
		return Preferences{}, fmt.Errorf("list subscriptions: %w", err)
	}
	watches, err := repo.ListActiveKeywordWatches(ctx)
	if err != nil {
		return Preferences{}, fmt.Errorf("list keyword watches: %w", err)
	}
	return Preferences{Subscriptions: subs, Watches: watches}, nil
}

// Result is the deduplicated candidate set of one Match call.
type Result struct {
	Candidates []entity.NotificationCandidate
	// CategoryMatches and KeywordMatches count surviving candidates by rule.
	CategoryMatches int
	KeywordMatches  int
}

// Engine is stateless; the zero value is ready to use.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Match produces at most one candidate per (user, article). A category
// subscription yields a category candidate; a keyword watch whose keyword is a
// substring of the lower-cased title and body yields a keyword candidate, which
// replaces any category candidate for the same pair. Scoped watches only fire
// for articles in their category.
//
// Candidates are ordered by article (input order) then user id.
func (e *Engine) Match(articles []*entity.Article, prefs Preferences) Result {
	subscribers := make(map[int64][]int64)
	for _, s := range prefs.Subscriptions {
		if s.IsSubscribed {
			subscribers[s.CategoryID] = append(subscribers[s.CategoryID], s.UserID)
		}
	}
	watches := activeWatches(prefs.Watches)

	var result Result
	for _, a := range articles {
		byUser := make(map[int64]entity.NotificationCandidate)

		for _, c := range a.Categories {
			for _, userID := range subscribers[c.ID] {
				if _, ok := byUser[userID]; ok {
					continue
				}
				byUser[userID] = entity.NotificationCandidate{
					UserID:     userID,
					ArticleID:  a.ID,
					CategoryID: ptr(c.ID),
				}
			}
		}

		text := strings.ToLower(a.Title + " " + a.Body)
		for _, w := range watches {
			if prev, ok := byUser[w.UserID]; ok && prev.IsKeywordMatch() {
				continue
			}
			if w.CategoryID != nil && !a.HasCategory(*w.CategoryID) {
				continue
			}
			if !strings.Contains(text, w.Keyword) {
				continue
			}
			byUser[w.UserID] = entity.NotificationCandidate{
				UserID:     w.UserID,
				ArticleID:  a.ID,
				CategoryID: keywordCategory(w, a),
				KeywordID:  ptr(w.ID),
			}
		}

		userIDs := make([]int64, 0, len(byUser))
		for id := range byUser {
			userIDs = append(userIDs, id)
		}
		slices.Sort(userIDs)
		for _, id := range userIDs {
			c := byUser[id]
			if c.IsKeywordMatch() {
				result.KeywordMatches++
			} else {
				result.CategoryMatches++
			}
			result.Candidates = append(result.Candidates, c)
		}
	}
	return result
}

// activeWatches returns the active watches with normalized, non-empty keywords,
// ordered by id so the oldest watch wins for a user.
func activeWatches(in []entity.KeywordWatch) []entity.KeywordWatch {
	out := make([]entity.KeywordWatch, 0, len(in))
	for _, w := range in {
		if !w.IsActive {
			continue
		}
		w.Keyword = entity.NormalizeKeyword(w.Keyword)
		if w.Keyword == "" {
			continue
		}
		out = append(out, w)
	}
	slices.SortStableFunc(out, func(a, b entity.KeywordWatch) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// keywordCategory is the watch's scope, or the article's first category for
// unscoped watches.
func keywordCategory(w entity.KeywordWatch, a *entity.Article) *int64 {
	if w.CategoryID != nil {
		return ptr(*w.CategoryID)
	}
	if len(a.Categories) > 0 {
		return ptr(a.Categories[0].ID)
	}
	return nil
}

func ptr(v int64) *int64 { return &v }
