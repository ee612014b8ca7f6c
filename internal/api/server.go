package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"signal-desk/internal/analytics"
	"signal-desk/internal/auth"
	"signal-desk/internal/database"
	"signal-desk/internal/events"
	"signal-desk/internal/feed"
	"signal-desk/internal/vault"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RateLimiter provides simple in-memory rate limiting per endpoint
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int           // max requests
	window   time.Duration // time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	// Filter out old requests
	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// SettingsStore is the settings surface handlers need.
// Implemented by *cache.SettingsCacheService.
type SettingsStore interface {
	GetAutomationToggles(ctx context.Context) (*database.AutomationToggles, error)
	UpdateAutomationToggles(ctx context.Context, t *database.AutomationToggles) error
	GetScannerConfig(ctx context.Context) (*database.ScannerConfig, error)
	UpdateScannerConfig(ctx context.Context, c *database.ScannerConfig) error
}

// Repository is the persistence surface handlers need beyond settings.
// Implemented by *database.Repository.
type Repository interface {
	HealthCheck(ctx context.Context) error
	ListFeedPosts(ctx context.Context, limit int) ([]database.FeedPost, error)
	CountFeedPostsToday(ctx context.Context) (int, error)
	ListWorkflowNodes(ctx context.Context) ([]database.WorkflowNode, error)
	UpdateNodePosition(ctx context.Context, id string, x, y float64) error
	SetNodeEnabled(ctx context.Context, id string, enabled bool) error
	ListWorkflowConnections(ctx context.Context) ([]database.WorkflowConnection, error)
	CreateWorkflowConnection(ctx context.Context, c *database.WorkflowConnection) error
	DeleteWorkflowConnection(ctx context.Context, id string) error
}

// Server represents the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      ServerConfig
	repo        Repository
	settings    SettingsStore
	generator   *feed.Generator
	analytics   *analytics.Service
	vaultClient *vault.Client
	authService *auth.Service
	authEnabled bool
	eventBus    *events.EventBus
	rateLimiter *RateLimiter
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ProductionMode  bool
	StaticFilesPath string
}

// NewServer creates a new API server
func NewServer(
	config ServerConfig,
	repo Repository,
	settings SettingsStore,
	generator *feed.Generator,
	analyticsService *analytics.Service,
	vaultClient *vault.Client, // Can be nil if vault is disabled
	authService *auth.Service, // Can be nil if auth is disabled
	eventBus *events.EventBus,
) *Server {
	// Set Gin mode
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8088"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:      router,
		config:      config,
		repo:        repo,
		settings:    settings,
		generator:   generator,
		analytics:   analyticsService,
		vaultClient: vaultClient,
		authService: authService,
		authEnabled: authService != nil,
		eventBus:    eventBus,
		rateLimiter: NewRateLimiter(120, time.Minute),
	}

	server.setupRoutes()

	// Initialize WebSocket hub for real-time event broadcasting
	InitWebSocket(eventBus)

	return server
}

// rateLimitMiddleware creates a middleware that rate limits requests by endpoint
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	// Cheap status polls the dashboard refreshes constantly
	noRateLimitPaths := map[string]bool{
		"/api/feed/status":         true,
		"/api/settings/automation": true,
		"/api/scanner/config":      true,
	}

	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if c.Request.Method == http.MethodGet && noRateLimitPaths[path] {
			c.Next()
			return
		}

		if !s.rateLimiter.Allow(path) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests to this endpoint. Please slow down.",
				"path":    path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Auth routes (public, no authentication required)
	if s.authEnabled {
		authGroup := s.router.Group("/api/auth")
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/refresh", s.handleRefresh)
		authGroup.POST("/logout", s.handleLogout)
	}

	// Auth status endpoint (always available, returns whether auth is enabled)
	s.router.GET("/api/auth/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"auth_enabled": s.authEnabled,
		})
	})

	// API routes (protected when auth is enabled)
	api := s.router.Group("/api")
	api.Use(s.rateLimitMiddleware())

	if s.authEnabled {
		api.Use(auth.Middleware(s.authService.JWTManager()))
	}

	{
		// Automation toggle endpoints
		settings := api.Group("/settings")
		{
			settings.GET("/automation", s.handleGetAutomationSettings)
			settings.PATCH("/automation", s.handlePatchAutomationSettings)
		}

		// Scanner configuration endpoints
		scanner := api.Group("/scanner")
		{
			scanner.GET("/config", s.handleGetScannerConfig)
			scanner.PATCH("/config", s.handlePatchScannerConfig)
		}

		// Test-feed endpoints
		feedGroup := api.Group("/feed")
		{
			feedGroup.GET("/status", s.handleGetFeedStatus)
			feedGroup.POST("/start", s.handleStartFeed)
			feedGroup.POST("/stop", s.handleStopFeed)
			feedGroup.POST("/generate", s.handleGenerateFeedPost)
			feedGroup.GET("/posts", s.handleListFeedPosts)
		}

		// Workflow canvas endpoints
		workflow := api.Group("/workflow")
		{
			workflow.GET("", s.handleGetWorkflow)
			workflow.PATCH("/nodes/:id/position", s.handleUpdateNodePosition)
			workflow.PATCH("/nodes/:id/enabled", s.handleSetNodeEnabled)
			workflow.POST("/connections", s.handleCreateConnection)
			workflow.DELETE("/connections/:id", s.handleDeleteConnection)
		}

		// Analytics endpoints
		analyticsGroup := api.Group("/analytics")
		{
			analyticsGroup.GET("/daily", s.handleGetDailyAnalytics)
			analyticsGroup.GET("/summary", s.handleGetAnalyticsSummary)
		}

		// Posting credentials endpoints (secrets never leave the server)
		credentials := api.Group("/credentials")
		{
			credentials.GET("/status", s.handleGetCredentialsStatus)
			credentials.PUT("", s.handleStoreCredentials)
			credentials.DELETE("/:platform", s.handleDeleteCredentials)
		}
	}

	// WebSocket endpoint for dashboard live updates
	s.router.GET("/ws", s.handleWebSocket)

	// Serve static files (dashboard build) in production
	if s.config.StaticFilesPath != "" {
		s.router.Static("/assets", s.config.StaticFilesPath+"/assets")
		s.router.StaticFile("/", s.config.StaticFilesPath+"/index.html")

		s.router.NoRoute(func(c *gin.Context) {
			if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
				c.JSON(http.StatusNotFound, gin.H{
					"error":  "API endpoint not found",
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				})
				return
			}
			// Serve index.html to support client-side routing
			c.File(s.config.StaticFilesPath + "/index.html")
		})
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting HTTP server on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Router exposes the underlying router for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dbHealthy := true
	if err := s.repo.HealthCheck(ctx); err != nil {
		dbHealthy = false
	}

	if !dbHealthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unhealthy",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "healthy",
		"uptime":   time.Now().Format(time.RFC3339),
	})
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
