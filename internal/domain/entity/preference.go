package entity

import (
	"strings"
	"time"
)

// CategorySubscription is a user's opt-in to every article of a category.
// Only subscriptions with IsSubscribed set on an active category are matchable.
type CategorySubscription struct {
	UserID       int64
	CategoryID   int64
	IsSubscribed bool
}

// KeywordWatch is a user-owned substring rule matched against article text.
// A non-nil CategoryID scopes the watch to articles of that category.
type KeywordWatch struct {
	ID         int64
	UserID     int64
	CategoryID *int64
	Keyword    string
	IsActive   bool
	CreatedAt  time.Time
}

// NormalizeKeyword returns the stored form of a watch keyword: trimmed and lower-cased.
func NormalizeKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// Recipient is the contact information used to email a user.
type Recipient struct {
	UserID      int64
	Email       string
	DisplayName string
}

// BannedKeyword is a moderation term. Articles containing it may be rejected.
type BannedKeyword struct {
	ID      int64
	Keyword string
	Active  bool
}
