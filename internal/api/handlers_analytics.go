package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func parseDaysParam(c *gin.Context) (int, bool) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			errorResponse(c, http.StatusBadRequest, "days must be between 1 and 365")
			return 0, false
		}
		days = parsed
	}
	return days, true
}

// handleGetDailyAnalytics returns per-day engagement snapshots,
// oldest first
func (s *Server) handleGetDailyAnalytics(c *gin.Context) {
	days, ok := parseDaysParam(c)
	if !ok {
		return
	}

	snapshots, err := s.analytics.GetDaily(c.Request.Context(), days)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load analytics")
		return
	}

	successResponse(c, gin.H{
		"days":      days,
		"snapshots": snapshots,
	})
}

// handleGetAnalyticsSummary returns aggregate engagement over the window
func (s *Server) handleGetAnalyticsSummary(c *gin.Context) {
	days, ok := parseDaysParam(c)
	if !ok {
		return
	}

	summary, err := s.analytics.GetSummary(c.Request.Context(), days)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load analytics summary")
		return
	}

	successResponse(c, summary)
}
