package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetAutomationToggles retrieves the workspace automation toggles.
// Returns nil (no error) when the record has not been created yet.
func (r *Repository) GetAutomationToggles(ctx context.Context) (*AutomationToggles, error) {
	var t AutomationToggles
	err := r.db.Pool.QueryRow(ctx,
		`SELECT master_enabled, dark_pool_scanner, unusual_options_sweeps,
		        auto_thread_posting, analytics_tracking, created_at, updated_at
		 FROM automation_toggles WHERE id = 1`).Scan(
		&t.MasterEnabled, &t.DarkPoolScanner, &t.UnusualOptionsSweeps,
		&t.AutoThreadPosting, &t.AnalyticsTracking, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// SaveAutomationToggles upserts the singleton automation toggles record
func (r *Repository) SaveAutomationToggles(ctx context.Context, t *AutomationToggles) error {
	now := time.Now()
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO automation_toggles
		 (id, master_enabled, dark_pool_scanner, unusual_options_sweeps,
		  auto_thread_posting, analytics_tracking, created_at, updated_at)
		 VALUES (1, $1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (id) DO UPDATE SET
			master_enabled = EXCLUDED.master_enabled,
			dark_pool_scanner = EXCLUDED.dark_pool_scanner,
			unusual_options_sweeps = EXCLUDED.unusual_options_sweeps,
			auto_thread_posting = EXCLUDED.auto_thread_posting,
			analytics_tracking = EXCLUDED.analytics_tracking,
			updated_at = EXCLUDED.updated_at`,
		t.MasterEnabled, t.DarkPoolScanner, t.UnusualOptionsSweeps,
		t.AutoThreadPosting, t.AnalyticsTracking, now)
	if err == nil {
		t.UpdatedAt = now
	}
	return err
}
