// Package store is the Postgres persistence layer: metric, content and
// snapshot upserts, the upload audit log, and the read queries the web
// layer serves. All upserts follow the delete-then-insert pattern so the
// identity key holds at most one row and re-processing is idempotent.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Batch is one file's worth of upserts inside a single transaction. Either
// every write in the batch commits or none do.
type Batch struct {
	tx pgx.Tx
}

// Begin opens the per-file transaction.
func (s *Store) Begin(ctx context.Context) (*Batch, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	return &Batch{tx: tx}, nil
}

// UpsertMetric replaces the value stored for (platform, metric, date).
func (b *Batch) UpsertMetric(ctx context.Context, p MetricPoint) error {
	if _, err := b.tx.Exec(ctx,
		`DELETE FROM social_stats WHERE platform=$1 AND metric_type=$2 AND date_recorded=$3`,
		p.Platform, p.Metric, p.Date,
	); err != nil {
		return fmt.Errorf("delete metric %s/%s: %w", p.Platform, p.Metric, err)
	}
	if _, err := b.tx.Exec(ctx,
		`INSERT INTO social_stats (platform, metric_type, value, date_recorded, source_type)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.Platform, p.Metric, p.Value, p.Date, p.Source,
	); err != nil {
		return fmt.Errorf("insert metric %s/%s: %w", p.Platform, p.Metric, err)
	}
	return nil
}

// UpsertContent replaces the inventory row for the post id.
func (b *Batch) UpsertContent(ctx context.Context, c ContentItem) error {
	_, err := b.tx.Exec(ctx,
		`INSERT INTO posts_inventory (post_id, platform, date_published, caption, link)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (post_id) DO UPDATE SET
		   platform = EXCLUDED.platform,
		   date_published = EXCLUDED.date_published,
		   caption = EXCLUDED.caption,
		   link = EXCLUDED.link`,
		c.PostID, c.Platform, c.DatePublished, c.Caption, c.Link,
	)
	if err != nil {
		return fmt.Errorf("upsert content %s: %w", c.PostID, err)
	}
	return nil
}

// UpsertSnapshot replaces the performance row for (post id, date recorded).
func (b *Batch) UpsertSnapshot(ctx context.Context, sn Snapshot) error {
	if _, err := b.tx.Exec(ctx,
		`DELETE FROM posts_performance WHERE post_id=$1 AND date_recorded=$2`,
		sn.PostID, sn.DateRecorded,
	); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", sn.PostID, err)
	}
	if _, err := b.tx.Exec(ctx,
		`INSERT INTO posts_performance (post_id, date_recorded, views, likes, comments, shares)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sn.PostID, sn.DateRecorded, sn.Views, sn.Likes, sn.Comments, sn.Shares,
	); err != nil {
		return fmt.Errorf("insert snapshot %s: %w", sn.PostID, err)
	}
	return nil
}

func (b *Batch) Commit(ctx context.Context) error {
	if err := b.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Rollback is a no-op after a successful commit, so it is safe to defer.
func (b *Batch) Rollback(ctx context.Context) {
	_ = b.tx.Rollback(ctx)
}
