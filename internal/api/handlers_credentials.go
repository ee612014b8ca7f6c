package api

import (
	"net/http"

	"signal-desk/internal/vault"

	"github.com/gin-gonic/gin"
)

// postingPlatforms are the platforms the dashboard can hold credentials for
var postingPlatforms = []string{"x", "bluesky", "threads"}

func isKnownPlatform(platform string) bool {
	for _, p := range postingPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

// handleGetCredentialsStatus reports which platforms have stored
// credentials. Secret values never leave the server.
func (s *Server) handleGetCredentialsStatus(c *gin.Context) {
	ctx := c.Request.Context()

	platforms := make([]gin.H, 0, len(postingPlatforms))
	for _, p := range postingPlatforms {
		platforms = append(platforms, gin.H{
			"platform":   p,
			"configured": s.vaultClient.HasCredentials(ctx, p),
		})
	}

	successResponse(c, gin.H{
		"vault_enabled": s.vaultClient.IsEnabled(),
		"platforms":     platforms,
	})
}

// handleStoreCredentials stores posting credentials for a platform
func (s *Server) handleStoreCredentials(c *gin.Context) {
	var creds vault.PostingCredentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !isKnownPlatform(creds.Platform) {
		errorResponse(c, http.StatusBadRequest, "Unknown platform")
		return
	}
	if creds.AccessToken == "" {
		errorResponse(c, http.StatusBadRequest, "access_token is required")
		return
	}

	if err := s.vaultClient.StoreCredentials(c.Request.Context(), creds); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to store credentials")
		return
	}

	successResponse(c, gin.H{
		"platform":   creds.Platform,
		"configured": true,
	})
}

// handleDeleteCredentials removes stored credentials for a platform
func (s *Server) handleDeleteCredentials(c *gin.Context) {
	platform := c.Param("platform")
	if !isKnownPlatform(platform) {
		errorResponse(c, http.StatusBadRequest, "Unknown platform")
		return
	}

	if err := s.vaultClient.DeleteCredentials(c.Request.Context(), platform); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to delete credentials")
		return
	}

	successResponse(c, gin.H{
		"platform":   platform,
		"configured": false,
	})
}
