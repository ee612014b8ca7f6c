package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDB creates a new database connection
func NewDB(cfg Config) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	// Single-tenant workspace: a small pool is plenty
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Printf("Successfully connected to PostgreSQL database: %s", cfg.Database)

	return &DB{Pool: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Println("Database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	log.Println("Running database migrations...")

	migrations := []string{
		// Automation toggles: a singleton settings record for the workspace
		`CREATE TABLE IF NOT EXISTS automation_toggles (
			id INTEGER PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			master_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			dark_pool_scanner BOOLEAN NOT NULL DEFAULT TRUE,
			unusual_options_sweeps BOOLEAN NOT NULL DEFAULT TRUE,
			auto_thread_posting BOOLEAN NOT NULL DEFAULT FALSE,
			analytics_tracking BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Scanner thresholds: a singleton record, field-level last-write-wins
		`CREATE TABLE IF NOT EXISTS scanner_config (
			id INTEGER PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			min_notional_usd DECIMAL(20, 2) NOT NULL DEFAULT 1000000,
			min_adv_percent DECIMAL(10, 4) NOT NULL DEFAULT 1.0,
			min_premium_usd DECIMAL(20, 2) NOT NULL DEFAULT 250000,
			min_oi_change_percent DECIMAL(10, 4) NOT NULL DEFAULT 10.0,
			min_sweep_size INTEGER NOT NULL DEFAULT 500,
			include_block_trades BOOLEAN NOT NULL DEFAULT TRUE,
			include_venue_imbalance BOOLEAN NOT NULL DEFAULT FALSE,
			include_insider_filings BOOLEAN NOT NULL DEFAULT FALSE,
			include_catalyst_events BOOLEAN NOT NULL DEFAULT TRUE,
			refresh_interval_secs INTEGER NOT NULL DEFAULT 60,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Test-feed posts generated by the dashboard
		`CREATE TABLE IF NOT EXISTS feed_posts (
			id UUID PRIMARY KEY,
			signal_type VARCHAR(40) NOT NULL,
			symbol VARCHAR(12) NOT NULL,
			body TEXT NOT NULL,
			is_thread BOOLEAN NOT NULL DEFAULT FALSE,
			segments INTEGER NOT NULL DEFAULT 1,
			notional_usd DECIMAL(20, 2),
			premium_usd DECIMAL(20, 2),
			venue VARCHAR(40),
			generated_by VARCHAR(10) NOT NULL DEFAULT 'manual',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feed_posts_created_at ON feed_posts(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feed_posts_signal_type ON feed_posts(signal_type)`,

		// Workflow canvas nodes and connections (positions only, no execution graph)
		`CREATE TABLE IF NOT EXISTS workflow_nodes (
			id VARCHAR(40) PRIMARY KEY,
			kind VARCHAR(40) NOT NULL,
			label VARCHAR(100) NOT NULL,
			pos_x DECIMAL(10, 2) NOT NULL DEFAULT 0,
			pos_y DECIMAL(10, 2) NOT NULL DEFAULT 0,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS workflow_connections (
			id UUID PRIMARY KEY,
			from_node VARCHAR(40) NOT NULL REFERENCES workflow_nodes(id) ON DELETE CASCADE,
			to_node VARCHAR(40) NOT NULL REFERENCES workflow_nodes(id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (from_node, to_node)
		)`,

		// Daily analytics snapshots so repeated fetches within a day agree
		`CREATE TABLE IF NOT EXISTS analytics_snapshots (
			id SERIAL PRIMARY KEY,
			day DATE NOT NULL UNIQUE,
			impressions BIGINT NOT NULL DEFAULT 0,
			engagements BIGINT NOT NULL DEFAULT 0,
			follower_delta INTEGER NOT NULL DEFAULT 0,
			posts_published INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_snapshots_day ON analytics_snapshots(day)`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Println("Database migrations completed")
	return nil
}
