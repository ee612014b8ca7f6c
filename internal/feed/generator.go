// Package feed generates synthetic signal posts so the posting pipeline can
// be exercised end to end without live market data or a real social account.
package feed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"signal-desk/config"
	"signal-desk/internal/automation"
	"signal-desk/internal/database"
	"signal-desk/internal/events"
	"signal-desk/internal/scanner"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SettingsProvider supplies the current toggle and threshold state.
// Implemented by *cache.SettingsCacheService.
type SettingsProvider interface {
	GetAutomationToggles(ctx context.Context) (*database.AutomationToggles, error)
	GetScannerConfig(ctx context.Context) (*database.ScannerConfig, error)
}

// PostRepository persists generated posts.
// Implemented by *database.Repository.
type PostRepository interface {
	InsertFeedPost(ctx context.Context, p *database.FeedPost) error
	PruneFeedPosts(ctx context.Context, keep int) (int64, error)
}

// PostCounter tracks how many posts were generated today.
// Implemented by *cache.CacheService. May be nil when Redis is disabled.
type PostCounter interface {
	IncrementDailyPostCount(ctx context.Context, dateKey string) (int64, error)
}

// Status is a point-in-time view of the generator for the dashboard
type Status struct {
	Running           bool  `json:"running"`
	IntervalSeconds   int   `json:"interval_seconds"`
	NextPostInSeconds int   `json:"next_post_in_seconds"`
	PostsToday        int64 `json:"posts_today"`
}

// Generator produces a synthetic post on a fixed interval, respecting the
// effective automation state: a disabled signal source never produces posts
// and threads only appear while auto-thread posting is effectively on. Every
// synthesized signal is run back through the threshold evaluator before it
// is posted, so a disabled scanner config also produces nothing.
type Generator struct {
	settings  SettingsProvider
	repo      PostRepository
	counter   PostCounter
	bus       *events.EventBus
	evaluator *scanner.Evaluator
	logger    zerolog.Logger
	cfg       config.FeedConfig

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	nextPostAt time.Time
	postsToday int64
	rng        *rand.Rand
}

// NewGenerator creates a feed generator
func NewGenerator(settings SettingsProvider, repo PostRepository, counter PostCounter, bus *events.EventBus, cfg config.FeedConfig, logger zerolog.Logger) *Generator {
	return &Generator{
		settings:  settings,
		repo:      repo,
		counter:   counter,
		bus:       bus,
		evaluator: scanner.NewEvaluator(),
		logger:    logger.With().Str("component", "FeedGenerator").Logger(),
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start launches the generation loop. Safe to call when already running.
func (g *Generator) Start(ctx context.Context) {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	g.running = true
	g.cancel = cancel
	g.nextPostAt = time.Now().Add(g.interval())
	g.mu.Unlock()

	g.logger.Info().
		Int("interval_seconds", g.cfg.IntervalSeconds).
		Msg("Feed generator started")
	g.bus.PublishFeedStarted(g.cfg.IntervalSeconds)

	go g.run(runCtx)
}

// Stop halts the generation loop. Safe to call when already stopped.
func (g *Generator) Stop(reason string) {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()

	cancel()
	g.logger.Info().Str("reason", reason).Msg("Feed generator stopped")
	g.bus.PublishFeedStopped(reason)
}

// IsRunning reports whether the loop is active
func (g *Generator) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// GetStatus returns the countdown view shown on the dashboard
func (g *Generator) GetStatus() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := 0
	if g.running {
		next = int(time.Until(g.nextPostAt).Seconds())
		if next < 0 {
			next = 0
		}
	}
	return Status{
		Running:           g.running,
		IntervalSeconds:   g.cfg.IntervalSeconds,
		NextPostInSeconds: next,
		PostsToday:        g.postsToday,
	}
}

func (g *Generator) interval() time.Duration {
	secs := g.cfg.IntervalSeconds
	if secs <= 0 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.mu.Lock()
			g.nextPostAt = time.Now().Add(g.interval())
			g.mu.Unlock()

			if _, err := g.GenerateOnce(ctx, database.GeneratedByAuto); err != nil {
				if err != ErrNoActiveSources {
					g.logger.Error().Err(err).Msg("Failed to generate feed post")
					g.bus.PublishError("feed", "post generation failed", err)
				}
			}
		}
	}
}

// ErrNoActiveSources is returned when every signal source is effectively off
// or the scanner config is disabled
var ErrNoActiveSources = fmt.Errorf("no active signal sources")

// GenerateOnce synthesizes, persists, and broadcasts a single post. Used by
// the loop and by the manual "generate now" endpoint.
func (g *Generator) GenerateOnce(ctx context.Context, generatedBy string) (*database.FeedPost, error) {
	toggles, err := g.settings.GetAutomationToggles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read toggles: %w", err)
	}
	eff := automation.Effective(*toggles)

	if !eff.DarkPoolScanner && !eff.UnusualOptionsSweeps {
		return nil, ErrNoActiveSources
	}

	scannerCfg, err := g.settings.GetScannerConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read scanner config: %w", err)
	}

	post, ok := g.synthesize(eff, scannerCfg, generatedBy)
	if !ok {
		return nil, ErrNoActiveSources
	}

	if err := g.repo.InsertFeedPost(ctx, post); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.postsToday++
	g.mu.Unlock()

	if g.counter != nil {
		dateKey := time.Now().UTC().Format("20060102")
		if count, err := g.counter.IncrementDailyPostCount(ctx, dateKey); err == nil {
			g.mu.Lock()
			g.postsToday = count
			g.mu.Unlock()
		}
	}

	g.logger.Info().
		Str("post_id", post.ID).
		Str("signal_type", post.SignalType).
		Str("symbol", post.Symbol).
		Bool("is_thread", post.IsThread).
		Str("generated_by", post.GeneratedBy).
		Msg("Feed post generated")

	g.bus.PublishPostGenerated(post)

	if g.cfg.MaxStoredPosts > 0 {
		if pruned, err := g.repo.PruneFeedPosts(ctx, g.cfg.MaxStoredPosts); err == nil && pruned > 0 {
			g.logger.Debug().Int64("pruned", pruned).Msg("Pruned old feed posts")
		}
	}

	return post, nil
}

var symbols = []string{"NVDA", "AAPL", "TSLA", "MSFT", "META", "AMZN", "AMD", "SPY", "QQQ", "GOOGL"}

var venues = []string{"UBS ATS", "Sigma X", "Crossfinder", "IEX", "LeveL ATS"}

// synthesize builds a post from whichever signal sources are effectively on.
// Values are drawn above the configured thresholds, and the drawn signal is
// gated through the evaluator: a rejected signal (notably when the scanner
// config is disabled) yields no post.
func (g *Generator) synthesize(eff automation.EffectiveState, cfg *database.ScannerConfig, generatedBy string) (*database.FeedPost, bool) {
	useDarkPool := eff.DarkPoolScanner
	if useDarkPool && eff.UnusualOptionsSweeps {
		useDarkPool = g.rng.Intn(2) == 0
	}

	symbol := symbols[g.rng.Intn(len(symbols))]
	post := &database.FeedPost{
		ID:          uuid.New().String(),
		Symbol:      symbol,
		Segments:    1,
		GeneratedBy: generatedBy,
	}

	if useDarkPool {
		print := scanner.DarkPoolPrint{
			Symbol:      symbol,
			Price:       50 + g.rng.Float64()*450,
			NotionalUSD: cfg.MinNotionalUSD * (1 + g.rng.Float64()*4),
			ADVPercent:  cfg.MinADVPercent * (1 + g.rng.Float64()*2),
			Venue:       venues[g.rng.Intn(len(venues))],
			IsBlock:     cfg.IncludeBlockTrades && g.rng.Intn(4) == 0,
			ExecutedAt:  time.Now(),
		}
		print.Size = int64(print.NotionalUSD / print.Price)

		if !g.evaluator.MatchDarkPoolPrint(cfg, print) {
			return nil, false
		}

		post.SignalType = database.SignalTypeDarkPoolPrint
		if print.IsBlock {
			post.SignalType = database.SignalTypeBlockTrade
		}
		post.NotionalUSD = print.NotionalUSD
		post.Venue = print.Venue
		post.Body = fmt.Sprintf("$%s dark pool print: %s shares at $%.2f (%s notional) on %s, %.1f%% of ADV",
			symbol, formatCount(print.Size), print.Price, formatUSD(print.NotionalUSD), print.Venue, print.ADVPercent)
	} else {
		side := scanner.SideCall
		if g.rng.Intn(3) == 0 {
			side = scanner.SidePut
		}
		sweep := scanner.OptionsSweep{
			Symbol:          symbol,
			Side:            side,
			Strike:          float64(50 + g.rng.Intn(500)),
			Expiry:          time.Now().AddDate(0, 0, 7+g.rng.Intn(60)).Format("Jan 02"),
			Contracts:       cfg.MinSweepSize + g.rng.Intn(cfg.MinSweepSize*3+1),
			PremiumUSD:      cfg.MinPremiumUSD * (1 + g.rng.Float64()*5),
			OIChangePercent: cfg.MinOIChangePercent * (1 + g.rng.Float64()*3),
			ExecutedAt:      time.Now(),
		}

		if !g.evaluator.MatchOptionsSweep(cfg, sweep) {
			return nil, false
		}

		post.SignalType = database.SignalTypeOptionsSweep
		post.PremiumUSD = sweep.PremiumUSD
		post.Body = fmt.Sprintf("$%s unusual options sweep: %d %s contracts, $%.0f strike exp %s, %s premium, OI +%.0f%%",
			symbol, sweep.Contracts, sweep.Side, sweep.Strike, sweep.Expiry, formatUSD(sweep.PremiumUSD), sweep.OIChangePercent)
	}

	// Threads only while auto-thread posting is effectively on
	if eff.AutoThreadPosting && g.rng.Intn(3) == 0 {
		maxSegments := g.cfg.ThreadMaxSegments
		if maxSegments < 2 {
			maxSegments = 2
		}
		post.IsThread = true
		post.Segments = 2 + g.rng.Intn(maxSegments-1)

		var b strings.Builder
		b.WriteString(post.Body)
		for i := 2; i <= post.Segments; i++ {
			b.WriteString(fmt.Sprintf("\n\n%d/ Context: repeat flow in $%s over the past sessions suggests positioning ahead of a catalyst.", i, symbol))
		}
		post.Body = b.String()
	}

	return post, true
}

func formatUSD(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("$%.1fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.0fK", v/1_000)
	}
	return fmt.Sprintf("$%.0f", v)
}

func formatCount(v int64) string {
	if v >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
	}
	if v >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(v)/1_000)
	}
	return fmt.Sprintf("%d", v)
}
