package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"signal-desk/internal/database"
)

// Logger interface for dependency injection
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Backend is the cache surface SettingsCacheService needs.
// Implemented by *CacheService.
type Backend interface {
	IsHealthy() bool
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SettingsRepository is the persistence surface SettingsCacheService needs.
// Implemented by *database.Repository.
type SettingsRepository interface {
	GetAutomationToggles(ctx context.Context) (*database.AutomationToggles, error)
	SaveAutomationToggles(ctx context.Context, t *database.AutomationToggles) error
	GetScannerConfig(ctx context.Context) (*database.ScannerConfig, error)
	SaveScannerConfig(ctx context.Context, c *database.ScannerConfig) error
}

// SettingsCacheService provides cache-first access to the workspace's
// automation toggles and scanner config. Reads go cache-first with
// auto-populate; writes go to the database first, then cache best effort.
type SettingsCacheService struct {
	cache  Backend
	repo   SettingsRepository
	logger Logger
}

// NewSettingsCacheService creates a new settings cache service
func NewSettingsCacheService(cache Backend, repo SettingsRepository, logger Logger) *SettingsCacheService {
	return &SettingsCacheService{
		cache:  cache,
		repo:   repo,
		logger: logger,
	}
}

// ============================================================================
// AUTOMATION TOGGLES
// ============================================================================

// GetAutomationToggles retrieves the toggles record (cache-first).
// On first ever fetch the record does not exist; it is created with
// defaults, persisted, and cached before returning.
func (s *SettingsCacheService) GetAutomationToggles(ctx context.Context) (*database.AutomationToggles, error) {
	// Cache-first
	if s.cache.IsHealthy() {
		if cached, err := s.cache.Get(ctx, KeyAutomationToggles); err == nil && cached != "" {
			var t database.AutomationToggles
			if json.Unmarshal([]byte(cached), &t) == nil {
				return &t, nil
			}
		}
	}

	// Cache miss - load from DB
	t, err := s.repo.GetAutomationToggles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load automation toggles: %w", err)
	}
	if t == nil {
		// First fetch: create the singleton with defaults
		t = database.DefaultAutomationToggles()
		if err := s.repo.SaveAutomationToggles(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to create default automation toggles: %w", err)
		}
		s.logger.Info("Created default automation toggles record")
	}

	// Populate cache (best effort)
	if s.cache.IsHealthy() {
		data, _ := json.Marshal(t)
		if err := s.cache.Set(ctx, KeyAutomationToggles, string(data), DefaultSettingsTTL); err != nil {
			s.logger.Debug("Failed to cache automation toggles", "error", err)
		}
	}

	return t, nil
}

// UpdateAutomationToggles persists the full toggles record with
// write-through. DB first for durability, then cache.
func (s *SettingsCacheService) UpdateAutomationToggles(ctx context.Context, t *database.AutomationToggles) error {
	if err := s.repo.SaveAutomationToggles(ctx, t); err != nil {
		return fmt.Errorf("failed to persist automation toggles: %w", err)
	}

	if s.cache.IsHealthy() {
		// Invalidate first so a failed Set cannot leave stale data behind
		if err := s.cache.Delete(ctx, KeyAutomationToggles); err != nil {
			s.logger.Warn("Failed to invalidate automation toggles cache", "error", err)
		}
		data, _ := json.Marshal(t)
		if err := s.cache.Set(ctx, KeyAutomationToggles, string(data), DefaultSettingsTTL); err != nil {
			// DB has the truth; next read repopulates
			s.logger.Warn("Failed to update automation toggles cache, will repopulate on next read", "error", err)
		}
	}

	return nil
}

// ============================================================================
// SCANNER CONFIG
// ============================================================================

// GetScannerConfig retrieves the scanner thresholds (cache-first), creating
// the defaults record on first fetch.
func (s *SettingsCacheService) GetScannerConfig(ctx context.Context) (*database.ScannerConfig, error) {
	if s.cache.IsHealthy() {
		if cached, err := s.cache.Get(ctx, KeyScannerConfig); err == nil && cached != "" {
			var c database.ScannerConfig
			if json.Unmarshal([]byte(cached), &c) == nil {
				return &c, nil
			}
		}
	}

	c, err := s.repo.GetScannerConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load scanner config: %w", err)
	}
	if c == nil {
		c = database.DefaultScannerConfig()
		if err := s.repo.SaveScannerConfig(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to create default scanner config: %w", err)
		}
		s.logger.Info("Created default scanner config record")
	}

	if s.cache.IsHealthy() {
		data, _ := json.Marshal(c)
		if err := s.cache.Set(ctx, KeyScannerConfig, string(data), DefaultSettingsTTL); err != nil {
			s.logger.Debug("Failed to cache scanner config", "error", err)
		}
	}

	return c, nil
}

// UpdateScannerConfig persists the merged scanner config with write-through
func (s *SettingsCacheService) UpdateScannerConfig(ctx context.Context, c *database.ScannerConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if err := s.repo.SaveScannerConfig(ctx, c); err != nil {
		return fmt.Errorf("failed to persist scanner config: %w", err)
	}

	if s.cache.IsHealthy() {
		if err := s.cache.Delete(ctx, KeyScannerConfig); err != nil {
			s.logger.Warn("Failed to invalidate scanner config cache", "error", err)
		}
		data, _ := json.Marshal(c)
		if err := s.cache.Set(ctx, KeyScannerConfig, string(data), DefaultSettingsTTL); err != nil {
			s.logger.Warn("Failed to update scanner config cache, will repopulate on next read", "error", err)
		}
	}

	return nil
}

// IsHealthy returns whether the underlying cache is healthy
func (s *SettingsCacheService) IsHealthy() bool {
	return s.cache.IsHealthy()
}
