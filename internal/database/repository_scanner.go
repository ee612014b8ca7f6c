package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetScannerConfig retrieves the workspace scanner configuration.
// Returns nil (no error) when the record has not been created yet.
func (r *Repository) GetScannerConfig(ctx context.Context) (*ScannerConfig, error) {
	var c ScannerConfig
	err := r.db.Pool.QueryRow(ctx,
		`SELECT enabled, min_notional_usd, min_adv_percent, min_premium_usd,
		        min_oi_change_percent, min_sweep_size,
		        include_block_trades, include_venue_imbalance,
		        include_insider_filings, include_catalyst_events,
		        refresh_interval_secs, created_at, updated_at
		 FROM scanner_config WHERE id = 1`).Scan(
		&c.Enabled, &c.MinNotionalUSD, &c.MinADVPercent, &c.MinPremiumUSD,
		&c.MinOIChangePercent, &c.MinSweepSize,
		&c.IncludeBlockTrades, &c.IncludeVenueImbalance,
		&c.IncludeInsiderFilings, &c.IncludeCatalystEvents,
		&c.RefreshIntervalSecs, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// SaveScannerConfig upserts the singleton scanner configuration record.
// Field-level last-write-wins: callers merge the patch before saving.
func (r *Repository) SaveScannerConfig(ctx context.Context, c *ScannerConfig) error {
	now := time.Now()
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO scanner_config
		 (id, enabled, min_notional_usd, min_adv_percent, min_premium_usd,
		  min_oi_change_percent, min_sweep_size,
		  include_block_trades, include_venue_imbalance,
		  include_insider_filings, include_catalyst_events,
		  refresh_interval_secs, created_at, updated_at)
		 VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		 ON CONFLICT (id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			min_notional_usd = EXCLUDED.min_notional_usd,
			min_adv_percent = EXCLUDED.min_adv_percent,
			min_premium_usd = EXCLUDED.min_premium_usd,
			min_oi_change_percent = EXCLUDED.min_oi_change_percent,
			min_sweep_size = EXCLUDED.min_sweep_size,
			include_block_trades = EXCLUDED.include_block_trades,
			include_venue_imbalance = EXCLUDED.include_venue_imbalance,
			include_insider_filings = EXCLUDED.include_insider_filings,
			include_catalyst_events = EXCLUDED.include_catalyst_events,
			refresh_interval_secs = EXCLUDED.refresh_interval_secs,
			updated_at = EXCLUDED.updated_at`,
		c.Enabled, c.MinNotionalUSD, c.MinADVPercent, c.MinPremiumUSD,
		c.MinOIChangePercent, c.MinSweepSize,
		c.IncludeBlockTrades, c.IncludeVenueImbalance,
		c.IncludeInsiderFilings, c.IncludeCatalystEvents,
		c.RefreshIntervalSecs, now)
	if err == nil {
		c.UpdatedAt = now
	}
	return err
}
