package api

import (
	"errors"
	"net/http"

	"signal-desk/internal/auth"

	"github.com/gin-gonic/gin"
)

// authErrorResponse maps auth errors to HTTP responses without leaking
// which part of the credentials was wrong
func authErrorResponse(c *gin.Context, err error) {
	var authErr auth.AuthError
	if errors.As(err, &authErr) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   true,
			"code":    authErr.Code,
			"message": authErr.Message,
		})
		return
	}
	errorResponse(c, http.StatusInternalServerError, "Authentication failed")
}

// handleLogin authenticates the operator and issues a token pair
func (s *Server) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "username and password are required")
		return
	}

	pair, err := s.authService.Login(req)
	if err != nil {
		authErrorResponse(c, err)
		return
	}

	successResponse(c, pair)
}

// handleRefresh exchanges a refresh token for a new token pair
func (s *Server) handleRefresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := s.authService.Refresh(req)
	if err != nil {
		authErrorResponse(c, err)
		return
	}

	successResponse(c, pair)
}

// handleLogout revokes the presented refresh token
func (s *Server) handleLogout(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "refresh_token is required")
		return
	}

	s.authService.Logout(req.RefreshToken)
	successResponse(c, gin.H{"logged_out": true})
}
