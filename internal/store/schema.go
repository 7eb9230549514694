package store

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS social_stats (
		id BIGSERIAL PRIMARY KEY,
		platform TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		date_recorded TEXT NOT NULL,
		source_type TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_social_stats_key
		ON social_stats (platform, metric_type, date_recorded)`,
	`CREATE TABLE IF NOT EXISTS posts_inventory (
		post_id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		date_published TEXT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS posts_performance (
		id BIGSERIAL PRIMARY KEY,
		post_id TEXT NOT NULL,
		date_recorded TEXT NOT NULL,
		views DOUBLE PRECISION NOT NULL DEFAULT 0,
		likes DOUBLE PRECISION NOT NULL DEFAULT 0,
		comments DOUBLE PRECISION NOT NULL DEFAULT 0,
		shares DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_performance_key
		ON posts_performance (post_id, date_recorded)`,
	`CREATE TABLE IF NOT EXISTS upload_logs (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT NOT NULL,
		platform TEXT NOT NULL,
		status TEXT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
// Called once at startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
