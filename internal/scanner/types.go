// Package scanner evaluates market-microstructure signals against the
// workspace's configured thresholds.
package scanner

import "time"

// DarkPoolPrint is an off-exchange block execution reported to the tape
type DarkPoolPrint struct {
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price"`
	Size        int64     `json:"size"`
	NotionalUSD float64   `json:"notional_usd"`
	ADVPercent  float64   `json:"adv_percent"` // Print size as % of average daily volume
	Venue       string    `json:"venue"`
	IsBlock     bool      `json:"is_block"` // Exchange-reported block trade, not a dark venue
	ExecutedAt  time.Time `json:"executed_at"`
}

// OptionsSweep is an aggressive multi-exchange options order
type OptionsSweep struct {
	Symbol          string    `json:"symbol"`
	Side            string    `json:"side"` // CALL or PUT
	Strike          float64   `json:"strike"`
	Expiry          string    `json:"expiry"`
	Contracts       int       `json:"contracts"`
	PremiumUSD      float64   `json:"premium_usd"`
	OIChangePercent float64   `json:"oi_change_percent"`
	ExecutedAt      time.Time `json:"executed_at"`
}

// Sweep sides
const (
	SideCall = "CALL"
	SidePut  = "PUT"
)
