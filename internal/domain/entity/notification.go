package entity

import "time"

// NotificationCandidate is a (user, article) pair produced by the match engine
// together with the rule that fired. KeywordID is set when a keyword watch matched.
type NotificationCandidate struct {
	UserID     int64
	ArticleID  int64
	CategoryID *int64
	KeywordID  *int64
}

// Key returns the deduplication key of the candidate.
func (c NotificationCandidate) Key() NotificationKey {
	return NotificationKey{UserID: c.UserID, ArticleID: c.ArticleID}
}

// IsKeywordMatch reports whether the candidate came from a keyword watch.
func (c NotificationCandidate) IsKeywordMatch() bool {
	return c.KeywordID != nil
}

// NotificationKey identifies a notification. At most one notification exists per key.
type NotificationKey struct {
	UserID    int64
	ArticleID int64
}

// Notification is a persisted notification record. ArticleID, CategoryID and
// KeywordID capture why it fired and may be nil.
type Notification struct {
	ID         int64
	UserID     int64
	ArticleID  *int64
	CategoryID *int64
	KeywordID  *int64
	IsRead     bool
	IsEmailed  bool
	CreatedAt  time.Time
}
