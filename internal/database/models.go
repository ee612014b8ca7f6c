package database

import (
	"fmt"
	"time"
)

// ====== AUTOMATION TOGGLES ======

// AutomationToggles is the workspace's automation settings record. It is a
// singleton: created with defaults on first fetch, mutated via partial
// updates, never deleted.
//
// The three dependent toggles keep their stored value while the master is
// off; their effective state is stored AND master_enabled.
type AutomationToggles struct {
	MasterEnabled        bool `json:"master_enabled"`
	DarkPoolScanner      bool `json:"dark_pool_scanner"`
	UnusualOptionsSweeps bool `json:"unusual_options_sweeps"`
	AutoThreadPosting    bool `json:"auto_thread_posting"`
	// AnalyticsTracking is always on and not user-togglable.
	AnalyticsTracking bool `json:"analytics_tracking"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultAutomationToggles returns the settings record created on first fetch.
// Auto-thread posting defaults off: it is the highest-risk automation.
func DefaultAutomationToggles() *AutomationToggles {
	return &AutomationToggles{
		MasterEnabled:        true,
		DarkPoolScanner:      true,
		UnusualOptionsSweeps: true,
		AutoThreadPosting:    false,
		AnalyticsTracking:    true,
	}
}

// ====== SCANNER CONFIGURATION ======

// ScannerConfig holds the microstructure-signal thresholds. Independent of
// AutomationToggles: the UI gates it behind the dark-pool toggle but the
// server does not.
type ScannerConfig struct {
	Enabled bool `json:"enabled"`

	// Numeric thresholds
	MinNotionalUSD     float64 `json:"min_notional_usd"`      // Min dark-pool print notional
	MinADVPercent      float64 `json:"min_adv_percent"`       // Min % of average daily volume
	MinPremiumUSD      float64 `json:"min_premium_usd"`       // Min options sweep premium
	MinOIChangePercent float64 `json:"min_oi_change_percent"` // Min open-interest change %
	MinSweepSize       int     `json:"min_sweep_size"`        // Min contracts in a sweep

	// Inclusion flags
	IncludeBlockTrades    bool `json:"include_block_trades"`
	IncludeVenueImbalance bool `json:"include_venue_imbalance"`
	IncludeInsiderFilings bool `json:"include_insider_filings"`
	IncludeCatalystEvents bool `json:"include_catalyst_events"`

	RefreshIntervalSecs int `json:"refresh_interval_secs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultScannerConfig returns the scanner thresholds created on first fetch
func DefaultScannerConfig() *ScannerConfig {
	return &ScannerConfig{
		Enabled:               true,
		MinNotionalUSD:        1_000_000,
		MinADVPercent:         1.0,
		MinPremiumUSD:         250_000,
		MinOIChangePercent:    10.0,
		MinSweepSize:          500,
		IncludeBlockTrades:    true,
		IncludeVenueImbalance: false,
		IncludeInsiderFilings: false,
		IncludeCatalystEvents: true,
		RefreshIntervalSecs:   60,
	}
}

// Validate validates ScannerConfig field ranges
func (c *ScannerConfig) Validate() error {
	if c.MinNotionalUSD < 0 {
		return fmt.Errorf("min_notional_usd must be non-negative")
	}
	if c.MinADVPercent < 0 || c.MinADVPercent > 100 {
		return fmt.Errorf("min_adv_percent must be between 0 and 100")
	}
	if c.MinPremiumUSD < 0 {
		return fmt.Errorf("min_premium_usd must be non-negative")
	}
	if c.MinOIChangePercent < 0 {
		return fmt.Errorf("min_oi_change_percent must be non-negative")
	}
	if c.MinSweepSize < 0 {
		return fmt.Errorf("min_sweep_size must be non-negative")
	}
	if c.RefreshIntervalSecs < 5 {
		return fmt.Errorf("refresh_interval_secs must be at least 5")
	}
	return nil
}

// ====== FEED POSTS ======

// Feed post signal types
const (
	SignalTypeDarkPoolPrint = "DARK_POOL_PRINT"
	SignalTypeOptionsSweep  = "OPTIONS_SWEEP"
	SignalTypeBlockTrade    = "BLOCK_TRADE"
	SignalTypeCatalystEvent = "CATALYST_EVENT"
)

// Feed post generation sources
const (
	GeneratedByManual = "manual"
	GeneratedByAuto   = "auto"
)

// FeedPost is a generated test-feed post
type FeedPost struct {
	ID          string    `json:"id"`
	SignalType  string    `json:"signal_type"`
	Symbol      string    `json:"symbol"`
	Body        string    `json:"body"`
	IsThread    bool      `json:"is_thread"`
	Segments    int       `json:"segments"`
	NotionalUSD float64   `json:"notional_usd,omitempty"`
	PremiumUSD  float64   `json:"premium_usd,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	GeneratedBy string    `json:"generated_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ====== WORKFLOW CANVAS ======

// WorkflowNode is a positioned node on the visual canvas. Connections are
// display data only; there is no graph-execution semantics behind them.
type WorkflowNode struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Label     string    `json:"label"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkflowConnection links two canvas nodes for rendering
type WorkflowConnection struct {
	ID        string    `json:"id"`
	FromNode  string    `json:"from_node"`
	ToNode    string    `json:"to_node"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultWorkflowNodes returns the canvas layout seeded for a new workspace
func DefaultWorkflowNodes() []WorkflowNode {
	return []WorkflowNode{
		{ID: "dark-pool-feed", Kind: "source", Label: "Dark Pool Feed", X: 60, Y: 80, Enabled: true},
		{ID: "options-flow", Kind: "source", Label: "Options Flow", X: 60, Y: 240, Enabled: true},
		{ID: "signal-filter", Kind: "filter", Label: "Threshold Filter", X: 320, Y: 160, Enabled: true},
		{ID: "post-composer", Kind: "composer", Label: "Post Composer", X: 580, Y: 160, Enabled: true},
		{ID: "publisher", Kind: "sink", Label: "Publisher", X: 840, Y: 160, Enabled: false},
	}
}

// ====== ANALYTICS ======

// AnalyticsSnapshot is one day's engagement metrics
type AnalyticsSnapshot struct {
	ID             int64     `json:"id"`
	Day            time.Time `json:"day"`
	Impressions    int64     `json:"impressions"`
	Engagements    int64     `json:"engagements"`
	FollowerDelta  int       `json:"follower_delta"`
	PostsPublished int       `json:"posts_published"`
	CreatedAt      time.Time `json:"created_at"`
}

// EngagementRate returns engagements as a percentage of impressions
func (s *AnalyticsSnapshot) EngagementRate() float64 {
	if s.Impressions == 0 {
		return 0
	}
	return float64(s.Engagements) / float64(s.Impressions) * 100
}
