package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"signal-desk/internal/database"
)

// ============================================================================
// MOCK TYPES
// ============================================================================

// MockBackend mocks the cache Backend for testing
type MockBackend struct {
	healthy     bool
	data        map[string]string
	mu          sync.RWMutex
	getCalls    []string
	setCalls    []SetCall
	deleteCalls []string
	getErr      error
	setErr      error
	deleteErr   error
}

// SetCall tracks Set method invocations
type SetCall struct {
	Key   string
	Value string
	TTL   time.Duration
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		healthy: true,
		data:    make(map[string]string),
	}
}

func (m *MockBackend) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy
}

func (m *MockBackend) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	m.getCalls = append(m.getCalls, key)
	m.mu.Unlock()

	if m.getErr != nil {
		return "", m.getErr
	}

	m.mu.RLock()
	val, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return "", errors.New("redis: nil") // Simulate cache miss
	}
	return val, nil
}

func (m *MockBackend) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	default:
		data, _ := json.Marshal(v)
		strVal = string(data)
	}

	m.mu.Lock()
	m.setCalls = append(m.setCalls, SetCall{Key: key, Value: strVal, TTL: ttl})
	m.data[key] = strVal
	m.mu.Unlock()

	return nil
}

func (m *MockBackend) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, key)
	delete(m.data, key)
	m.mu.Unlock()
	return m.deleteErr
}

// MockSettingsRepository mocks the SettingsRepository for testing
type MockSettingsRepository struct {
	toggles *database.AutomationToggles
	scanner *database.ScannerConfig

	getTogglesCalls  int
	saveTogglesCalls []database.AutomationToggles
	getScannerCalls  int
	saveScannerCalls []database.ScannerConfig

	getTogglesErr  error
	saveTogglesErr error
	getScannerErr  error
	saveScannerErr error
}

func (m *MockSettingsRepository) GetAutomationToggles(ctx context.Context) (*database.AutomationToggles, error) {
	m.getTogglesCalls++
	if m.getTogglesErr != nil {
		return nil, m.getTogglesErr
	}
	return m.toggles, nil
}

func (m *MockSettingsRepository) SaveAutomationToggles(ctx context.Context, t *database.AutomationToggles) error {
	if m.saveTogglesErr != nil {
		return m.saveTogglesErr
	}
	m.saveTogglesCalls = append(m.saveTogglesCalls, *t)
	m.toggles = t
	return nil
}

func (m *MockSettingsRepository) GetScannerConfig(ctx context.Context) (*database.ScannerConfig, error) {
	m.getScannerCalls++
	if m.getScannerErr != nil {
		return nil, m.getScannerErr
	}
	return m.scanner, nil
}

func (m *MockSettingsRepository) SaveScannerConfig(ctx context.Context, c *database.ScannerConfig) error {
	if m.saveScannerErr != nil {
		return m.saveScannerErr
	}
	m.saveScannerCalls = append(m.saveScannerCalls, *c)
	m.scanner = c
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestService(backend *MockBackend, repo *MockSettingsRepository) *SettingsCacheService {
	return NewSettingsCacheService(backend, repo, nopLogger{})
}

// ============================================================================
// AUTOMATION TOGGLES
// ============================================================================

func TestGetAutomationTogglesCreatesDefaultsOnFirstFetch(t *testing.T) {
	backend := NewMockBackend()
	repo := &MockSettingsRepository{} // empty DB

	svc := newTestService(backend, repo)
	toggles, err := svc.GetAutomationToggles(context.Background())
	if err != nil {
		t.Fatalf("GetAutomationToggles failed: %v", err)
	}

	want := database.DefaultAutomationToggles()
	if toggles.MasterEnabled != want.MasterEnabled ||
		toggles.DarkPoolScanner != want.DarkPoolScanner ||
		toggles.UnusualOptionsSweeps != want.UnusualOptionsSweeps ||
		toggles.AutoThreadPosting != want.AutoThreadPosting ||
		toggles.AnalyticsTracking != want.AnalyticsTracking {
		t.Errorf("expected defaults, got %+v", toggles)
	}
	if len(repo.saveTogglesCalls) != 1 {
		t.Errorf("expected defaults persisted once, got %d saves", len(repo.saveTogglesCalls))
	}
	if len(backend.setCalls) != 1 || backend.setCalls[0].Key != KeyAutomationToggles {
		t.Errorf("expected cache populated under %s, got %+v", KeyAutomationToggles, backend.setCalls)
	}
}

func TestGetAutomationTogglesCacheHitSkipsDB(t *testing.T) {
	backend := NewMockBackend()
	repo := &MockSettingsRepository{}

	stored := database.DefaultAutomationToggles()
	stored.AutoThreadPosting = true
	data, _ := json.Marshal(stored)
	backend.data[KeyAutomationToggles] = string(data)

	svc := newTestService(backend, repo)
	toggles, err := svc.GetAutomationToggles(context.Background())
	if err != nil {
		t.Fatalf("GetAutomationToggles failed: %v", err)
	}

	if !toggles.AutoThreadPosting {
		t.Error("expected cached value returned")
	}
	if repo.getTogglesCalls != 0 {
		t.Errorf("expected no DB reads on cache hit, got %d", repo.getTogglesCalls)
	}
}

func TestGetAutomationTogglesFallsBackWhenCacheUnhealthy(t *testing.T) {
	backend := NewMockBackend()
	backend.healthy = false
	repo := &MockSettingsRepository{toggles: database.DefaultAutomationToggles()}

	svc := newTestService(backend, repo)
	if _, err := svc.GetAutomationToggles(context.Background()); err != nil {
		t.Fatalf("expected DB fallback, got error: %v", err)
	}
	if repo.getTogglesCalls != 1 {
		t.Errorf("expected one DB read, got %d", repo.getTogglesCalls)
	}
	if len(backend.setCalls) != 0 {
		t.Error("must not write to unhealthy cache")
	}
}

func TestUpdateAutomationTogglesWriteThrough(t *testing.T) {
	backend := NewMockBackend()
	repo := &MockSettingsRepository{}

	svc := newTestService(backend, repo)
	toggles := database.DefaultAutomationToggles()
	toggles.MasterEnabled = false

	if err := svc.UpdateAutomationToggles(context.Background(), toggles); err != nil {
		t.Fatalf("UpdateAutomationToggles failed: %v", err)
	}

	if len(repo.saveTogglesCalls) != 1 {
		t.Fatalf("expected one DB save, got %d", len(repo.saveTogglesCalls))
	}
	if repo.saveTogglesCalls[0].MasterEnabled {
		t.Error("expected master_enabled=false persisted")
	}
	// Stale entry removed before the new value lands
	if len(backend.deleteCalls) != 1 || backend.deleteCalls[0] != KeyAutomationToggles {
		t.Errorf("expected cache invalidation, got %+v", backend.deleteCalls)
	}
	if len(backend.setCalls) != 1 {
		t.Errorf("expected cache updated, got %d sets", len(backend.setCalls))
	}
}

func TestUpdateAutomationTogglesDBErrorSkipsCache(t *testing.T) {
	backend := NewMockBackend()
	repo := &MockSettingsRepository{saveTogglesErr: errors.New("db down")}

	svc := newTestService(backend, repo)
	err := svc.UpdateAutomationToggles(context.Background(), database.DefaultAutomationToggles())
	if err == nil {
		t.Fatal("expected error when DB save fails")
	}
	if len(backend.setCalls) != 0 || len(backend.deleteCalls) != 0 {
		t.Error("cache must not be touched when DB save fails")
	}
}

func TestUpdateAutomationTogglesCacheFailureIsNotFatal(t *testing.T) {
	backend := NewMockBackend()
	backend.setErr = errors.New("redis write failed")
	repo := &MockSettingsRepository{}

	svc := newTestService(backend, repo)
	if err := svc.UpdateAutomationToggles(context.Background(), database.DefaultAutomationToggles()); err != nil {
		t.Fatalf("cache failure must not fail the update: %v", err)
	}
	if len(repo.saveTogglesCalls) != 1 {
		t.Error("expected DB save despite cache failure")
	}
}

// ============================================================================
// SCANNER CONFIG
// ============================================================================

func TestGetScannerConfigCreatesDefaultsOnFirstFetch(t *testing.T) {
	backend := NewMockBackend()
	repo := &MockSettingsRepository{}

	svc := newTestService(backend, repo)
	cfg, err := svc.GetScannerConfig(context.Background())
	if err != nil {
		t.Fatalf("GetScannerConfig failed: %v", err)
	}

	want := database.DefaultScannerConfig()
	if cfg.MinNotionalUSD != want.MinNotionalUSD || cfg.MinSweepSize != want.MinSweepSize {
		t.Errorf("expected default thresholds, got %+v", cfg)
	}
	if len(repo.saveScannerCalls) != 1 {
		t.Errorf("expected defaults persisted once, got %d saves", len(repo.saveScannerCalls))
	}
}

func TestUpdateScannerConfigRejectsInvalid(t *testing.T) {
	backend := NewMockBackend()
	repo := &MockSettingsRepository{}

	svc := newTestService(backend, repo)
	cfg := database.DefaultScannerConfig()
	cfg.MinADVPercent = 150

	if err := svc.UpdateScannerConfig(context.Background(), cfg); err == nil {
		t.Fatal("expected validation error")
	}
	if len(repo.saveScannerCalls) != 0 {
		t.Error("invalid config must not reach the DB")
	}
}

func TestUpdateScannerConfigWriteThrough(t *testing.T) {
	backend := NewMockBackend()
	repo := &MockSettingsRepository{}

	svc := newTestService(backend, repo)
	cfg := database.DefaultScannerConfig()
	cfg.MinPremiumUSD = 500_000

	if err := svc.UpdateScannerConfig(context.Background(), cfg); err != nil {
		t.Fatalf("UpdateScannerConfig failed: %v", err)
	}

	if len(repo.saveScannerCalls) != 1 {
		t.Fatalf("expected one DB save, got %d", len(repo.saveScannerCalls))
	}
	if repo.saveScannerCalls[0].MinPremiumUSD != 500_000 {
		t.Errorf("expected min_premium_usd persisted, got %v", repo.saveScannerCalls[0].MinPremiumUSD)
	}

	cached, ok := backend.data[KeyScannerConfig]
	if !ok {
		t.Fatal("expected scanner config cached")
	}
	var roundTrip database.ScannerConfig
	if err := json.Unmarshal([]byte(cached), &roundTrip); err != nil {
		t.Fatalf("cached value not valid JSON: %v", err)
	}
	if roundTrip.MinPremiumUSD != 500_000 {
		t.Errorf("cached value stale: %+v", roundTrip)
	}
}
