package ingest

import (
	"context"
	"fmt"
	"strings"

	"news-notifier/internal/repository"
)

// ModerationResult is the outcome of a banned-keyword check.
type ModerationResult struct {
	HasBanned bool
	Matched   []string
}

// BannedKeywordChecker reports banned keywords contained in text.
type BannedKeywordChecker interface {
	ContainsBannedKeywords(text string) ModerationResult
}

// BannedList is an in-memory snapshot of active banned keywords.
type BannedList struct {
	keywords []string
}

func NewBannedList(keywords []string) *BannedList {
	list := &BannedList{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			list.keywords = append(list.keywords, k)
		}
	}
	return list
}

// LoadBannedList snapshots the active banned keywords.
func LoadBannedList(ctx context.Context, repo repository.BannedKeywordRepository) (*BannedList, error) {
	rows, err := repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list banned keywords: %w", err)
	}
	keywords := make([]string, 0, len(rows))
	for _, r := range rows {
		keywords = append(keywords, r.Keyword)
	}
	return NewBannedList(keywords), nil
}

// ContainsBannedKeywords matches case-insensitively on substrings.
func (l *BannedList) ContainsBannedKeywords(text string) ModerationResult {
	lower := strings.ToLower(text)
	var result ModerationResult
	for _, k := range l.keywords {
		if strings.Contains(lower, k) {
			result.HasBanned = true
			result.Matched = append(result.Matched, k)
		}
	}
	return result
}
