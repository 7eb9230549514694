package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// LastSuccessfulUpload returns the timestamp of the most recent successful
// upload of (filename, platform), if any. Used to skip duplicate uploads.
func (s *Store) LastSuccessfulUpload(ctx context.Context, filename, platform string) (time.Time, bool, error) {
	var uploaded time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT uploaded_at FROM upload_logs
		 WHERE filename=$1 AND platform=$2 AND status LIKE '%OK%'
		 ORDER BY id DESC LIMIT 1`,
		filename, platform,
	).Scan(&uploaded)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("lookup upload log: %w", err)
	}
	return uploaded, true, nil
}

// AppendUploadLog records one upload outcome. The log is append-only.
func (s *Store) AppendUploadLog(ctx context.Context, e UploadLogEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO upload_logs (filename, platform, status) VALUES ($1, $2, $3)`,
		e.Filename, e.Platform, e.Status,
	)
	if err != nil {
		return fmt.Errorf("append upload log: %w", err)
	}
	return nil
}

// RecentUploads returns the newest log entries, newest first.
func (s *Store) RecentUploads(ctx context.Context, limit int) ([]UploadLogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT filename, platform, status, uploaded_at FROM upload_logs
		 ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query upload log: %w", err)
	}
	defer rows.Close()

	var entries []UploadLogEntry
	for rows.Next() {
		var e UploadLogEntry
		if err := rows.Scan(&e.Filename, &e.Platform, &e.Status, &e.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan upload log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MaxMetricDate returns the newest date_recorded across all metrics.
func (s *Store) MaxMetricDate(ctx context.Context) (string, bool, error) {
	var date *string
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(date_recorded) FROM social_stats`).Scan(&date)
	if err != nil {
		return "", false, fmt.Errorf("max metric date: %w", err)
	}
	if date == nil {
		return "", false, nil
	}
	return *date, true, nil
}

// LatestMetrics returns the newest metric points, newest first.
func (s *Store) LatestMetrics(ctx context.Context, limit int) ([]MetricPoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT platform, metric_type, value, date_recorded, source_type
		 FROM social_stats ORDER BY date_recorded DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var points []MetricPoint
	for rows.Next() {
		var p MetricPoint
		if err := rows.Scan(&p.Platform, &p.Metric, &p.Value, &p.Date, &p.Source); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// TopContent joins each post with its most recent snapshot, ordered by
// views descending.
func (s *Store) TopContent(ctx context.Context, limit int) ([]ContentPerformance, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT i.post_id, i.platform, i.date_published, i.caption, i.link,
		        p.views, p.likes, p.comments, p.shares, p.date_recorded
		 FROM posts_inventory i
		 JOIN posts_performance p ON i.post_id = p.post_id
		 WHERE p.date_recorded = (
		   SELECT MAX(date_recorded) FROM posts_performance WHERE post_id = i.post_id
		 )
		 ORDER BY p.views DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	var items []ContentPerformance
	for rows.Next() {
		var cp ContentPerformance
		if err := rows.Scan(
			&cp.PostID, &cp.Platform, &cp.DatePublished, &cp.Caption, &cp.Link,
			&cp.Views, &cp.Likes, &cp.Comments, &cp.Shares, &cp.DateRecorded,
		); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, cp)
	}
	return items, rows.Err()
}

// ResetAll empties every data table. The upload log survives so the audit
// trail is never lost.
func (s *Store) ResetAll(ctx context.Context) error {
	for _, table := range []string{"social_stats", "posts_performance", "posts_inventory"} {
		if _, err := s.pool.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// DeletePlatform removes all metric and content data for one platform.
func (s *Store) DeletePlatform(ctx context.Context, platform string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM social_stats WHERE platform=$1`, platform); err != nil {
		return fmt.Errorf("delete platform metrics: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM posts_performance WHERE post_id IN
		   (SELECT post_id FROM posts_inventory WHERE platform=$1)`, platform); err != nil {
		return fmt.Errorf("delete platform snapshots: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM posts_inventory WHERE platform=$1`, platform); err != nil {
		return fmt.Errorf("delete platform content: %w", err)
	}
	return nil
}
