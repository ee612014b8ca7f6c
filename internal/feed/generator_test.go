package feed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"signal-desk/config"
	"signal-desk/internal/database"
	"signal-desk/internal/events"
	"signal-desk/internal/scanner"

	"github.com/rs/zerolog"
)

// ============================================================================
// MOCK TYPES
// ============================================================================

type mockSettings struct {
	toggles database.AutomationToggles
	scanner *database.ScannerConfig
	err     error
}

func (m *mockSettings) GetAutomationToggles(ctx context.Context) (*database.AutomationToggles, error) {
	if m.err != nil {
		return nil, m.err
	}
	t := m.toggles
	return &t, nil
}

func (m *mockSettings) GetScannerConfig(ctx context.Context) (*database.ScannerConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.scanner == nil {
		return database.DefaultScannerConfig(), nil
	}
	return m.scanner, nil
}

type mockPostRepo struct {
	mu         sync.Mutex
	inserted   []database.FeedPost
	pruneCalls []int
	insertErr  error
}

func (m *mockPostRepo) InsertFeedPost(ctx context.Context, p *database.FeedPost) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	m.inserted = append(m.inserted, *p)
	m.mu.Unlock()
	return nil
}

func (m *mockPostRepo) PruneFeedPosts(ctx context.Context, keep int) (int64, error) {
	m.mu.Lock()
	m.pruneCalls = append(m.pruneCalls, keep)
	m.mu.Unlock()
	return 0, nil
}

func allOnToggles() database.AutomationToggles {
	return database.AutomationToggles{
		MasterEnabled:        true,
		DarkPoolScanner:      true,
		UnusualOptionsSweeps: true,
		AutoThreadPosting:    true,
		AnalyticsTracking:    true,
	}
}

func testFeedConfig() config.FeedConfig {
	return config.FeedConfig{
		Enabled:           true,
		IntervalSeconds:   30,
		MaxStoredPosts:    500,
		ThreadMaxSegments: 4,
	}
}

func newTestGenerator(settings *mockSettings, repo *mockPostRepo) *Generator {
	return NewGenerator(settings, repo, nil, events.NewEventBus(), testFeedConfig(), zerolog.Nop())
}

// ============================================================================
// TESTS
// ============================================================================

func TestGenerateOnceMasterOffProducesNothing(t *testing.T) {
	toggles := allOnToggles()
	toggles.MasterEnabled = false
	repo := &mockPostRepo{}

	g := newTestGenerator(&mockSettings{toggles: toggles}, repo)
	_, err := g.GenerateOnce(context.Background(), database.GeneratedByAuto)
	if !errors.Is(err, ErrNoActiveSources) {
		t.Fatalf("expected ErrNoActiveSources, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("expected no posts, got %d", len(repo.inserted))
	}
}

func TestGenerateOnceBothScannersOffProducesNothing(t *testing.T) {
	toggles := allOnToggles()
	toggles.DarkPoolScanner = false
	toggles.UnusualOptionsSweeps = false
	repo := &mockPostRepo{}

	g := newTestGenerator(&mockSettings{toggles: toggles}, repo)
	if _, err := g.GenerateOnce(context.Background(), database.GeneratedByAuto); !errors.Is(err, ErrNoActiveSources) {
		t.Fatalf("expected ErrNoActiveSources, got %v", err)
	}
}

func TestGenerateOnceScannerDisabledProducesNothing(t *testing.T) {
	cfg := database.DefaultScannerConfig()
	cfg.Enabled = false
	repo := &mockPostRepo{}

	g := newTestGenerator(&mockSettings{toggles: allOnToggles(), scanner: cfg}, repo)
	for i := 0; i < 20; i++ {
		if _, err := g.GenerateOnce(context.Background(), database.GeneratedByAuto); !errors.Is(err, ErrNoActiveSources) {
			t.Fatalf("expected ErrNoActiveSources with scanner disabled, got %v", err)
		}
	}
	if len(repo.inserted) != 0 {
		t.Errorf("expected no posts with scanner disabled, got %d", len(repo.inserted))
	}
}

func TestGenerateOnceDarkPoolOnly(t *testing.T) {
	toggles := allOnToggles()
	toggles.UnusualOptionsSweeps = false
	toggles.AutoThreadPosting = false
	repo := &mockPostRepo{}

	g := newTestGenerator(&mockSettings{toggles: toggles}, repo)
	for i := 0; i < 20; i++ {
		post, err := g.GenerateOnce(context.Background(), database.GeneratedByAuto)
		if err != nil {
			t.Fatalf("GenerateOnce failed: %v", err)
		}
		if post.SignalType != database.SignalTypeDarkPoolPrint && post.SignalType != database.SignalTypeBlockTrade {
			t.Errorf("expected dark pool signal type, got %s", post.SignalType)
		}
		if post.IsThread {
			t.Error("thread generated while auto_thread_posting off")
		}
		if post.ID == "" {
			t.Error("expected uuid post id")
		}
	}
}

func TestGenerateOnceSweepsOnly(t *testing.T) {
	toggles := allOnToggles()
	toggles.DarkPoolScanner = false
	repo := &mockPostRepo{}

	g := newTestGenerator(&mockSettings{toggles: toggles}, repo)
	for i := 0; i < 20; i++ {
		post, err := g.GenerateOnce(context.Background(), database.GeneratedByAuto)
		if err != nil {
			t.Fatalf("GenerateOnce failed: %v", err)
		}
		if post.SignalType != database.SignalTypeOptionsSweep {
			t.Errorf("expected sweep signal type, got %s", post.SignalType)
		}
	}
}

func TestGenerateOnceSyntheticSignalClearsThresholds(t *testing.T) {
	toggles := allOnToggles()
	toggles.UnusualOptionsSweeps = false
	cfg := database.DefaultScannerConfig()
	cfg.IncludeBlockTrades = false
	repo := &mockPostRepo{}

	g := newTestGenerator(&mockSettings{toggles: toggles, scanner: cfg}, repo)
	e := scanner.NewEvaluator()

	for i := 0; i < 20; i++ {
		post, err := g.GenerateOnce(context.Background(), database.GeneratedByAuto)
		if err != nil {
			t.Fatalf("GenerateOnce failed: %v", err)
		}
		if post.SignalType == database.SignalTypeBlockTrade {
			t.Error("block trade generated with include_block_trades=false")
		}
		print := scanner.DarkPoolPrint{
			Symbol:      post.Symbol,
			NotionalUSD: post.NotionalUSD,
			ADVPercent:  cfg.MinADVPercent, // notional is the variable part
		}
		if !e.MatchDarkPoolPrint(cfg, print) {
			t.Errorf("synthetic post below thresholds: %+v", post)
		}
	}
}

func TestGenerateOnceThreadsRespectSegmentCap(t *testing.T) {
	repo := &mockPostRepo{}
	g := newTestGenerator(&mockSettings{toggles: allOnToggles()}, repo)

	sawThread := false
	for i := 0; i < 60; i++ {
		post, err := g.GenerateOnce(context.Background(), database.GeneratedByAuto)
		if err != nil {
			t.Fatalf("GenerateOnce failed: %v", err)
		}
		if post.IsThread {
			sawThread = true
			if post.Segments < 2 || post.Segments > testFeedConfig().ThreadMaxSegments {
				t.Errorf("thread segments out of range: %d", post.Segments)
			}
		} else if post.Segments != 1 {
			t.Errorf("single post with %d segments", post.Segments)
		}
	}
	if !sawThread {
		t.Error("expected at least one thread in 60 posts with auto_thread on")
	}
}

func TestGenerateOncePersistsAndPrunes(t *testing.T) {
	repo := &mockPostRepo{}
	g := newTestGenerator(&mockSettings{toggles: allOnToggles()}, repo)

	post, err := g.GenerateOnce(context.Background(), database.GeneratedByManual)
	if err != nil {
		t.Fatalf("GenerateOnce failed: %v", err)
	}
	if post.GeneratedBy != database.GeneratedByManual {
		t.Errorf("expected generated_by=manual, got %s", post.GeneratedBy)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.inserted))
	}
	if len(repo.pruneCalls) != 1 || repo.pruneCalls[0] != 500 {
		t.Errorf("expected prune to 500, got %+v", repo.pruneCalls)
	}
}

func TestGenerateOnceInsertErrorPropagates(t *testing.T) {
	repo := &mockPostRepo{insertErr: errors.New("db down")}
	g := newTestGenerator(&mockSettings{toggles: allOnToggles()}, repo)

	if _, err := g.GenerateOnce(context.Background(), database.GeneratedByAuto); err == nil {
		t.Fatal("expected insert error to propagate")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	g := newTestGenerator(&mockSettings{toggles: allOnToggles()}, &mockPostRepo{})

	if g.IsRunning() {
		t.Fatal("generator running before Start")
	}

	g.Start(context.Background())
	if !g.IsRunning() {
		t.Fatal("generator not running after Start")
	}
	g.Start(context.Background()) // no-op

	status := g.GetStatus()
	if !status.Running {
		t.Error("status should report running")
	}
	if status.NextPostInSeconds <= 0 || status.NextPostInSeconds > status.IntervalSeconds {
		t.Errorf("countdown out of range: %d", status.NextPostInSeconds)
	}

	g.Stop("test")
	if g.IsRunning() {
		t.Fatal("generator running after Stop")
	}
	g.Stop("test") // no-op

	status = g.GetStatus()
	if status.Running || status.NextPostInSeconds != 0 {
		t.Errorf("stopped status should zero the countdown, got %+v", status)
	}
}
