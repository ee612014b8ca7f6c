package scanner

import "signal-desk/internal/database"

// Evaluator filters raw signals through the workspace's scanner thresholds.
// Stateless: the current config is passed per call so the caller controls
// freshness.
type Evaluator struct{}

// NewEvaluator creates an evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// MatchDarkPoolPrint reports whether a print clears the configured
// thresholds. Block trades are dropped unless include_block_trades is set.
func (e *Evaluator) MatchDarkPoolPrint(cfg *database.ScannerConfig, p DarkPoolPrint) bool {
	if !cfg.Enabled {
		return false
	}
	if p.IsBlock && !cfg.IncludeBlockTrades {
		return false
	}
	if p.NotionalUSD < cfg.MinNotionalUSD {
		return false
	}
	if p.ADVPercent < cfg.MinADVPercent {
		return false
	}
	return true
}

// MatchOptionsSweep reports whether a sweep clears the configured thresholds
func (e *Evaluator) MatchOptionsSweep(cfg *database.ScannerConfig, s OptionsSweep) bool {
	if !cfg.Enabled {
		return false
	}
	if s.PremiumUSD < cfg.MinPremiumUSD {
		return false
	}
	if s.Contracts < cfg.MinSweepSize {
		return false
	}
	if s.OIChangePercent < cfg.MinOIChangePercent {
		return false
	}
	return true
}

// FilterDarkPoolPrints returns the prints that clear the thresholds
func (e *Evaluator) FilterDarkPoolPrints(cfg *database.ScannerConfig, prints []DarkPoolPrint) []DarkPoolPrint {
	matched := []DarkPoolPrint{}
	for _, p := range prints {
		if e.MatchDarkPoolPrint(cfg, p) {
			matched = append(matched, p)
		}
	}
	return matched
}

// FilterOptionsSweeps returns the sweeps that clear the thresholds
func (e *Evaluator) FilterOptionsSweeps(cfg *database.ScannerConfig, sweeps []OptionsSweep) []OptionsSweep {
	matched := []OptionsSweep{}
	for _, s := range sweeps {
		if e.MatchOptionsSweep(cfg, s) {
			matched = append(matched, s)
		}
	}
	return matched
}
