package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"signal-desk/internal/database"
	"signal-desk/internal/feed"

	"github.com/gin-gonic/gin"
)

// handleGetFeedStatus returns the generator countdown plus today's
// persisted post count
func (s *Server) handleGetFeedStatus(c *gin.Context) {
	status := s.generator.GetStatus()

	// The generator only counts posts it produced this process; the DB
	// count survives restarts.
	if count, err := s.repo.CountFeedPostsToday(c.Request.Context()); err == nil {
		status.PostsToday = int64(count)
	}

	successResponse(c, status)
}

// handleStartFeed starts the automatic generation loop
func (s *Server) handleStartFeed(c *gin.Context) {
	toggles, err := s.settings.GetAutomationToggles(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load automation settings")
		return
	}
	if !toggles.MasterEnabled {
		errorResponse(c, http.StatusConflict, "Master automation is disabled")
		return
	}

	// The loop outlives this request
	s.generator.Start(context.Background())
	successResponse(c, s.generator.GetStatus())
}

// handleStopFeed stops the automatic generation loop
func (s *Server) handleStopFeed(c *gin.Context) {
	s.generator.Stop("stopped via API")
	successResponse(c, s.generator.GetStatus())
}

// handleGenerateFeedPost produces a single post on demand
func (s *Server) handleGenerateFeedPost(c *gin.Context) {
	post, err := s.generator.GenerateOnce(c.Request.Context(), database.GeneratedByManual)
	if err != nil {
		if errors.Is(err, feed.ErrNoActiveSources) {
			errorResponse(c, http.StatusConflict, "No active signal sources; enable a scanner first")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "Failed to generate post")
		return
	}
	successResponse(c, post)
}

// handleListFeedPosts returns recent posts, newest first
func (s *Server) handleListFeedPosts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			errorResponse(c, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	posts, err := s.repo.ListFeedPosts(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list posts")
		return
	}
	if posts == nil {
		posts = []database.FeedPost{}
	}

	successResponse(c, gin.H{
		"posts": posts,
		"count": len(posts),
	})
}
