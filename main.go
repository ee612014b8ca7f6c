package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signal-desk/config"
	"signal-desk/internal/analytics"
	"signal-desk/internal/api"
	"signal-desk/internal/auth"
	"signal-desk/internal/cache"
	"signal-desk/internal/database"
	"signal-desk/internal/events"
	"signal-desk/internal/feed"
	"signal-desk/internal/logging"
	"signal-desk/internal/vault"

	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(&logging.Config{
		Level:       cfg.LoggingConfig.Level,
		Output:      cfg.LoggingConfig.Output,
		JSONFormat:  cfg.LoggingConfig.JSONFormat,
		IncludeFile: cfg.LoggingConfig.IncludeFile,
		Component:   "main",
	})
	logging.SetDefault(logger)
	logger.Info("Structured logging initialized")

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize event bus
	eventBus := events.NewEventBus()
	logger.Info("Event bus initialized")

	// Initialize database
	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := database.NewRepository(db)

	// Seed the workflow canvas for a fresh workspace
	if err := repo.SeedWorkflowNodes(ctx, database.DefaultWorkflowNodes()); err != nil {
		logger.Warn("Failed to seed workflow nodes", "error", err)
	}

	// Initialize Redis-backed settings cache; fall back to DB-only mode
	// when Redis is disabled or unreachable
	var cacheBackend cache.Backend = cache.NewDisabledBackend()
	var cacheService *cache.CacheService
	if cfg.RedisConfig.Enabled {
		cacheService, err = cache.NewCacheService(cfg.RedisConfig)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache", "error", err)
		} else {
			cacheBackend = cacheService
			defer cacheService.Close()
			logger.Info("Redis cache initialized", "address", cfg.RedisConfig.Address)
		}
	}

	settings := cache.NewSettingsCacheService(cacheBackend, repo, logger.WithComponent("settings"))

	// Initialize Vault client for posting credentials
	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		log.Fatalf("Failed to initialize vault client: %v", err)
	}
	if vaultClient.IsEnabled() {
		logger.Info("Vault client initialized", "address", cfg.VaultConfig.Address)
	} else {
		logger.Info("Vault disabled, credentials held in memory only")
	}

	// Initialize operator authentication when enabled
	var authService *auth.Service
	if cfg.AuthConfig.Enabled {
		if cfg.AuthConfig.JWTSecret == "" {
			log.Fatal("AUTH_JWT_SECRET is required when auth is enabled")
		}
		operatorPassword := os.Getenv("AUTH_OPERATOR_PASSWORD")
		if operatorPassword == "" {
			log.Fatal("AUTH_OPERATOR_PASSWORD is required when auth is enabled")
		}
		operatorUsername := os.Getenv("AUTH_OPERATOR_USERNAME")
		if operatorUsername == "" {
			operatorUsername = "operator"
		}

		passwords := auth.NewPasswordManager(auth.DefaultBcryptCost, cfg.AuthConfig.MinPasswordLength)
		if err := passwords.ValidatePasswordStrength(operatorPassword); err != nil {
			log.Fatalf("Operator password rejected: %v", err)
		}
		hash, err := passwords.HashPassword(operatorPassword)
		if err != nil {
			log.Fatalf("Failed to hash operator password: %v", err)
		}

		jwtManager := auth.NewJWTManager(
			cfg.AuthConfig.JWTSecret,
			cfg.AuthConfig.AccessTokenDuration,
			cfg.AuthConfig.RefreshTokenDuration,
		)
		authService = auth.NewService(operatorUsername, hash, jwtManager, passwords)
		logger.Info("Operator authentication enabled", "username", operatorUsername)
	} else {
		logger.Warn("Authentication disabled, API is open")
	}

	// Initialize the test-feed generator
	var counter feed.PostCounter
	if cacheService != nil {
		counter = cacheService
	}
	generator := feed.NewGenerator(settings, repo, counter, eventBus, cfg.FeedConfig, zlog)
	if cfg.FeedConfig.Enabled {
		generator.Start(ctx)
	}

	// Initialize analytics
	analyticsService := analytics.NewService(repo, logger)

	// Initialize the API server
	server := api.NewServer(
		api.ServerConfig{
			Port:            cfg.ServerConfig.Port,
			Host:            cfg.ServerConfig.Host,
			ProductionMode:  cfg.ServerConfig.ProductionMode,
			StaticFilesPath: cfg.ServerConfig.StaticFilesPath,
		},
		repo,
		settings,
		generator,
		analyticsService,
		vaultClient,
		authService,
		eventBus,
	)

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()
	logger.Info("Server started", "host", cfg.ServerConfig.Host, "port", cfg.ServerConfig.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalf("Server error: %v", err)
	case sig := <-quit:
		logger.Info("Shutdown signal received", "signal", sig.String())
	}

	// Graceful shutdown
	generator.Stop("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}

	logger.Info("Shutdown complete")
}
