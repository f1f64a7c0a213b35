// Package entity defines the core domain entities and validation logic for the application.
// It contains the business objects the ingestion and notification pipeline works on:
// articles, categories, user preferences, notifications and feed sources.
package entity

import "time"

// Article represents a news article ingested from an external feed.
// URL is the canonical source URL and the deduplication key.
type Article struct {
	ID          int64
	URL         string
	Title       string
	Body        string
	Author      string
	SourceName  string
	ImageURL    string
	PublishedAt time.Time
	CreatedAt   time.Time

	// Active is false once the article is hidden from default listings.
	Active bool
	// Processed is true once the notification matcher has evaluated the article.
	Processed bool

	Categories []*Category
}

// HasCategory reports whether the article belongs to the given category.
func (a *Article) HasCategory(id int64) bool {
	for _, c := range a.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// CategoryName returns the name of the article's category with the given id,
// or "" if the article does not carry that category.
func (a *Article) CategoryName(id int64) string {
	for _, c := range a.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}
