package repo

import (
	"context"
	"fmt"
	"time"

	"posterr/internal/infra/metrics"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL CHECK (char_length(username) BETWEEN 1 AND 14),
	joined_at TIMESTAMPTZ NOT NULL,
	logged_in BOOLEAN NOT NULL DEFAULT false
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_single_logged_in ON users ((logged_in)) WHERE logged_in`,
	`CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	post_type TEXT NOT NULL CHECK (post_type IN ('ORIGINAL', 'REPOST', 'QUOTE')),
	created_at TIMESTAMPTZ NOT NULL,
	original_post_id TEXT REFERENCES posts(id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS posts_author_id_idx ON posts (author_id)`,
	`CREATE INDEX IF NOT EXISTS posts_original_post_id_idx ON posts (original_post_id)`,
	`CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at)`,
	`CREATE TABLE IF NOT EXISTS daily_post_counts (
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	day TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
	PRIMARY KEY (user_id, day)
)`,
	`CREATE TABLE IF NOT EXISTS user_stats (
	user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	original_posts INTEGER NOT NULL DEFAULT 0,
	reposts INTEGER NOT NULL DEFAULT 0,
	quotes INTEGER NOT NULL DEFAULT 0
)`,
}

// Migrate создаёт таблицы, если их ещё нет.
func (p *Postgres) Migrate(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	for i, stmt := range schema {
		start := time.Now()
		_, err := p.pool.Exec(ctx, stmt)
		metrics.ObserveNetworkRequest("postgres", "migrate", "schema", start, err)
		if err != nil {
			return fmt.Errorf("миграция %d: %w", i, err)
		}
	}
	return nil
}
