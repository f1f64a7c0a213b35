package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order. Every statement is idempotent so MigrateUp can
// run on each worker start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sources (
    id            SERIAL PRIMARY KEY,
    name          TEXT NOT NULL,
    source_type   VARCHAR(20) NOT NULL DEFAULT 'newsapi',
    base_url      TEXT NOT NULL,
    api_key_ref   TEXT NOT NULL DEFAULT '',
    active        BOOLEAN NOT NULL DEFAULT TRUE,
    last_fetch_at TIMESTAMPTZ,
    last_error    TEXT,
    CONSTRAINT chk_source_type CHECK (source_type IN ('newsapi', 'rss'))
)`,
	`CREATE TABLE IF NOT EXISTS categories (
    id     SERIAL PRIMARY KEY,
    name   TEXT NOT NULL UNIQUE,
    slug   TEXT NOT NULL UNIQUE,
    active BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS articles (
    id           SERIAL PRIMARY KEY,
    url          VARCHAR(1000) NOT NULL UNIQUE,
    title        VARCHAR(500) NOT NULL,
    body         VARCHAR(2000) NOT NULL DEFAULT '',
    author       VARCHAR(200) NOT NULL DEFAULT '',
    source_name  VARCHAR(200) NOT NULL DEFAULT '',
    image_url    TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    active       BOOLEAN NOT NULL DEFAULT TRUE,
    processed    BOOLEAN NOT NULL DEFAULT FALSE
)`,
	`CREATE TABLE IF NOT EXISTS article_categories (
    article_id  INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    PRIMARY KEY (article_id, category_id)
)`,
	`CREATE TABLE IF NOT EXISTS users (
    id           SERIAL PRIMARY KEY,
    email        TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS category_subscriptions (
    user_id       INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    category_id   INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    is_subscribed BOOLEAN NOT NULL DEFAULT TRUE,
    UNIQUE (user_id, category_id)
)`,
	`CREATE TABLE IF NOT EXISTS keyword_watches (
    id          SERIAL PRIMARY KEY,
    user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    category_id INTEGER REFERENCES categories(id) ON DELETE CASCADE,
    keyword     VARCHAR(200) NOT NULL,
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE NULLS NOT DISTINCT (user_id, category_id, keyword)
)`,
	`CREATE TABLE IF NOT EXISTS notifications (
    id          SERIAL PRIMARY KEY,
    user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    article_id  INTEGER REFERENCES articles(id) ON DELETE SET NULL,
    category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
    keyword_id  INTEGER REFERENCES keyword_watches(id) ON DELETE SET NULL,
    is_read     BOOLEAN NOT NULL DEFAULT FALSE,
    is_emailed  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (user_id, article_id)
)`,
	`CREATE TABLE IF NOT EXISTS banned_keywords (
    id      SERIAL PRIMARY KEY,
    keyword TEXT NOT NULL UNIQUE,
    active  BOOLEAN NOT NULL DEFAULT TRUE
)`,
	`CREATE TABLE IF NOT EXISTS pipeline_leases (
    name       TEXT PRIMARY KEY,
    holder     TEXT NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL
)`,
	// 未処理記事の取得用(WHERE processed = FALSE)
	`CREATE INDEX IF NOT EXISTS idx_articles_unprocessed ON articles(id) WHERE processed = FALSE`,
	`CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(active) WHERE active = TRUE`,
	`CREATE INDEX IF NOT EXISTS idx_keyword_watches_active ON keyword_watches(id) WHERE is_active = TRUE`,
	// メール未送信通知の再送調査用
	`CREATE INDEX IF NOT EXISTS idx_notifications_unemailed ON notifications(user_id) WHERE is_emailed = FALSE`,
}

// dropOrder lists tables in reverse dependency order.
var dropOrder = []string{
	"pipeline_leases",
	"banned_keywords",
	"notifications",
	"keyword_watches",
	"category_subscriptions",
	"users",
	"article_categories",
	"articles",
	"categories",
	"sources",
}

// MigrateUp creates the schema. It stops at the first failing statement.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate up: statement %d: %w", i, err)
		}
	}
	return nil
}

// MigrateDown drops every table created by MigrateUp.
// Use with caution: this deletes all data.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	for _, table := range dropOrder {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("migrate down: %s: %w", table, err)
		}
	}
	return nil
}
