package api

import (
	"net/http"

	"signal-desk/internal/automation"

	"github.com/gin-gonic/gin"
)

// ==================== REQUEST TYPES ====================

// PatchAutomationRequest is a partial toggle update. Only the provided keys
// are applied; analytics_tracking is not accepted because it cannot be
// turned off.
type PatchAutomationRequest struct {
	MasterEnabled        *bool `json:"master_enabled,omitempty"`
	DarkPoolScanner      *bool `json:"dark_pool_scanner,omitempty"`
	UnusualOptionsSweeps *bool `json:"unusual_options_sweeps,omitempty"`
	AutoThreadPosting    *bool `json:"auto_thread_posting,omitempty"`
}

// isEmpty reports whether no keys were provided
func (r *PatchAutomationRequest) isEmpty() bool {
	return r.MasterEnabled == nil && r.DarkPoolScanner == nil &&
		r.UnusualOptionsSweeps == nil && r.AutoThreadPosting == nil
}

// ==================== HANDLERS ====================

// handleGetAutomationSettings returns the stored toggles and their
// effective state
func (s *Server) handleGetAutomationSettings(c *gin.Context) {
	toggles, err := s.settings.GetAutomationToggles(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load automation settings")
		return
	}

	successResponse(c, gin.H{
		"toggles":   toggles,
		"effective": automation.Effective(*toggles),
	})
}

// handlePatchAutomationSettings applies a partial toggle update.
// master_enabled is cascaded first so an explicit dependent value in the
// same request wins over the cascade.
func (s *Server) handlePatchAutomationSettings(c *gin.Context) {
	var req PatchAutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.isEmpty() {
		errorResponse(c, http.StatusBadRequest, "No toggle keys provided")
		return
	}

	ctx := c.Request.Context()
	toggles, err := s.settings.GetAutomationToggles(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load automation settings")
		return
	}

	state := *toggles
	type change struct {
		key   automation.ToggleKey
		value bool
	}
	var changes []change
	if req.MasterEnabled != nil {
		changes = append(changes, change{automation.KeyMasterEnabled, *req.MasterEnabled})
	}
	if req.DarkPoolScanner != nil {
		changes = append(changes, change{automation.KeyDarkPoolScanner, *req.DarkPoolScanner})
	}
	if req.UnusualOptionsSweeps != nil {
		changes = append(changes, change{automation.KeyUnusualOptionsSweeps, *req.UnusualOptionsSweeps})
	}
	if req.AutoThreadPosting != nil {
		changes = append(changes, change{automation.KeyAutoThreadPosting, *req.AutoThreadPosting})
	}

	for _, ch := range changes {
		state, err = automation.Cascade(state, ch.key, ch.value)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.settings.UpdateAutomationToggles(ctx, &state); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to save automation settings")
		return
	}

	for _, ch := range changes {
		s.eventBus.PublishAutomationToggled(string(ch.key), ch.value, state)
	}

	// Stop auto-posting immediately when the kill switch lands
	if s.generator != nil && req.MasterEnabled != nil && !*req.MasterEnabled && s.generator.IsRunning() {
		s.generator.Stop("master automation disabled")
	}

	successResponse(c, gin.H{
		"toggles":   state,
		"effective": automation.Effective(state),
	})
}
