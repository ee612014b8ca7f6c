package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetSnapshotByDay fetches the metrics snapshot for one day.
// Returns nil (no error) when none exists.
func (r *Repository) GetSnapshotByDay(ctx context.Context, day time.Time) (*AnalyticsSnapshot, error) {
	var s AnalyticsSnapshot
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, day, impressions, engagements, follower_delta,
		        posts_published, created_at
		 FROM analytics_snapshots WHERE day = $1`, day).Scan(
		&s.ID, &s.Day, &s.Impressions, &s.Engagements,
		&s.FollowerDelta, &s.PostsPublished, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analytics snapshot: %w", err)
	}
	return &s, nil
}

// UpsertSnapshot stores a day's metrics, replacing any existing record for
// that day so repeated fetches agree
func (r *Repository) UpsertSnapshot(ctx context.Context, s *AnalyticsSnapshot) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO analytics_snapshots
		 (day, impressions, engagements, follower_delta, posts_published)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (day) DO UPDATE SET
			impressions = EXCLUDED.impressions,
			engagements = EXCLUDED.engagements,
			follower_delta = EXCLUDED.follower_delta,
			posts_published = EXCLUDED.posts_published
		 RETURNING id, created_at`,
		s.Day, s.Impressions, s.Engagements, s.FollowerDelta,
		s.PostsPublished).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert analytics snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the most recent days, oldest first for charting
func (r *Repository) ListSnapshots(ctx context.Context, days int) ([]AnalyticsSnapshot, error) {
	if days <= 0 {
		days = 30
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, day, impressions, engagements, follower_delta,
		        posts_published, created_at
		 FROM (
			SELECT * FROM analytics_snapshots ORDER BY day DESC LIMIT $1
		 ) recent
		 ORDER BY day ASC`, days)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []AnalyticsSnapshot{}
	for rows.Next() {
		var s AnalyticsSnapshot
		if err := rows.Scan(&s.ID, &s.Day, &s.Impressions, &s.Engagements,
			&s.FollowerDelta, &s.PostsPublished, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analytics snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
