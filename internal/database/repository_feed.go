package database

import (
	"context"
	"fmt"
)

// InsertFeedPost stores a generated feed post
func (r *Repository) InsertFeedPost(ctx context.Context, p *FeedPost) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO feed_posts
		 (id, signal_type, symbol, body, is_thread, segments,
		  notional_usd, premium_usd, venue, generated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		p.ID, p.SignalType, p.Symbol, p.Body, p.IsThread, p.Segments,
		p.NotionalUSD, p.PremiumUSD, p.Venue, p.GeneratedBy).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feed post: %w", err)
	}
	return nil
}

// ListFeedPosts returns the most recent posts, newest first
func (r *Repository) ListFeedPosts(ctx context.Context, limit int) ([]FeedPost, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, signal_type, symbol, body, is_thread, segments,
		        COALESCE(notional_usd, 0), COALESCE(premium_usd, 0),
		        COALESCE(venue, ''), generated_by, created_at
		 FROM feed_posts
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed posts: %w", err)
	}
	defer rows.Close()

	posts := []FeedPost{}
	for rows.Next() {
		var p FeedPost
		if err := rows.Scan(&p.ID, &p.SignalType, &p.Symbol, &p.Body,
			&p.IsThread, &p.Segments, &p.NotionalUSD, &p.PremiumUSD,
			&p.Venue, &p.GeneratedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feed post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// PruneFeedPosts deletes everything beyond the newest keep posts and
// returns how many were removed
func (r *Repository) PruneFeedPosts(ctx context.Context, keep int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM feed_posts
		 WHERE id NOT IN (
			SELECT id FROM feed_posts ORDER BY created_at DESC LIMIT $1
		 )`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune feed posts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountFeedPostsToday counts posts created since midnight UTC
func (r *Repository) CountFeedPostsToday(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM feed_posts WHERE created_at >= CURRENT_DATE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feed posts: %w", err)
	}
	return count, nil
}
