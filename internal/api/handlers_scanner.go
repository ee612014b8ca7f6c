package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PatchScannerConfigRequest is a partial threshold update. Omitted fields
// keep their stored value (field-level last-write-wins).
type PatchScannerConfigRequest struct {
	Enabled               *bool    `json:"enabled,omitempty"`
	MinNotionalUSD        *float64 `json:"min_notional_usd,omitempty"`
	MinADVPercent         *float64 `json:"min_adv_percent,omitempty"`
	MinPremiumUSD         *float64 `json:"min_premium_usd,omitempty"`
	MinOIChangePercent    *float64 `json:"min_oi_change_percent,omitempty"`
	MinSweepSize          *int     `json:"min_sweep_size,omitempty"`
	IncludeBlockTrades    *bool    `json:"include_block_trades,omitempty"`
	IncludeVenueImbalance *bool    `json:"include_venue_imbalance,omitempty"`
	IncludeInsiderFilings *bool    `json:"include_insider_filings,omitempty"`
	IncludeCatalystEvents *bool    `json:"include_catalyst_events,omitempty"`
	RefreshIntervalSecs   *int     `json:"refresh_interval_secs,omitempty"`
}

// handleGetScannerConfig returns the current scanner thresholds
func (s *Server) handleGetScannerConfig(c *gin.Context) {
	cfg, err := s.settings.GetScannerConfig(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load scanner config")
		return
	}
	successResponse(c, cfg)
}

// handlePatchScannerConfig merges a partial update into the stored config.
// The merged result is validated as a whole before saving.
func (s *Server) handlePatchScannerConfig(c *gin.Context) {
	var req PatchScannerConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	cfg, err := s.settings.GetScannerConfig(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load scanner config")
		return
	}

	var changed []string
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
		changed = append(changed, "enabled")
	}
	if req.MinNotionalUSD != nil {
		cfg.MinNotionalUSD = *req.MinNotionalUSD
		changed = append(changed, "min_notional_usd")
	}
	if req.MinADVPercent != nil {
		cfg.MinADVPercent = *req.MinADVPercent
		changed = append(changed, "min_adv_percent")
	}
	if req.MinPremiumUSD != nil {
		cfg.MinPremiumUSD = *req.MinPremiumUSD
		changed = append(changed, "min_premium_usd")
	}
	if req.MinOIChangePercent != nil {
		cfg.MinOIChangePercent = *req.MinOIChangePercent
		changed = append(changed, "min_oi_change_percent")
	}
	if req.MinSweepSize != nil {
		cfg.MinSweepSize = *req.MinSweepSize
		changed = append(changed, "min_sweep_size")
	}
	if req.IncludeBlockTrades != nil {
		cfg.IncludeBlockTrades = *req.IncludeBlockTrades
		changed = append(changed, "include_block_trades")
	}
	if req.IncludeVenueImbalance != nil {
		cfg.IncludeVenueImbalance = *req.IncludeVenueImbalance
		changed = append(changed, "include_venue_imbalance")
	}
	if req.IncludeInsiderFilings != nil {
		cfg.IncludeInsiderFilings = *req.IncludeInsiderFilings
		changed = append(changed, "include_insider_filings")
	}
	if req.IncludeCatalystEvents != nil {
		cfg.IncludeCatalystEvents = *req.IncludeCatalystEvents
		changed = append(changed, "include_catalyst_events")
	}
	if req.RefreshIntervalSecs != nil {
		cfg.RefreshIntervalSecs = *req.RefreshIntervalSecs
		changed = append(changed, "refresh_interval_secs")
	}

	if len(changed) == 0 {
		errorResponse(c, http.StatusBadRequest, "No config fields provided")
		return
	}

	if err := cfg.Validate(); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.settings.UpdateScannerConfig(ctx, cfg); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to save scanner config")
		return
	}

	s.eventBus.PublishScannerConfigUpdated(cfg, changed)

	successResponse(c, cfg)
}
