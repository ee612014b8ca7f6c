package analytics

import (
	"context"
	"testing"
	"time"

	"signal-desk/internal/database"
	"signal-desk/internal/logging"
)

type mockSnapshotRepo struct {
	byDay   map[string]*database.AnalyticsSnapshot
	upserts int
}

func newMockSnapshotRepo() *mockSnapshotRepo {
	return &mockSnapshotRepo{byDay: make(map[string]*database.AnalyticsSnapshot)}
}

func (m *mockSnapshotRepo) GetSnapshotByDay(ctx context.Context, day time.Time) (*database.AnalyticsSnapshot, error) {
	return m.byDay[day.Format("2006-01-02")], nil
}

func (m *mockSnapshotRepo) UpsertSnapshot(ctx context.Context, s *database.AnalyticsSnapshot) error {
	m.upserts++
	copied := *s
	m.byDay[s.Day.Format("2006-01-02")] = &copied
	return nil
}

func (m *mockSnapshotRepo) ListSnapshots(ctx context.Context, days int) ([]database.AnalyticsSnapshot, error) {
	today := truncateToDay(time.Now().UTC())
	out := []database.AnalyticsSnapshot{}
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		if s, ok := m.byDay[day.Format("2006-01-02")]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func newTestService(repo SnapshotRepository) *Service {
	return NewService(repo, logging.New(&logging.Config{Level: "ERROR"}))
}

func TestGetDailyMaterializesMissingDays(t *testing.T) {
	repo := newMockSnapshotRepo()
	svc := newTestService(repo)

	snapshots, err := svc.GetDaily(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetDaily failed: %v", err)
	}
	if len(snapshots) != 7 {
		t.Fatalf("expected 7 snapshots, got %d", len(snapshots))
	}
	if repo.upserts != 7 {
		t.Errorf("expected 7 upserts, got %d", repo.upserts)
	}
	// Oldest first
	for i := 1; i < len(snapshots); i++ {
		if !snapshots[i].Day.After(snapshots[i-1].Day) {
			t.Error("snapshots not ordered oldest first")
		}
	}
}

func TestGetDailyIsStableAcrossFetches(t *testing.T) {
	repo := newMockSnapshotRepo()
	svc := newTestService(repo)

	first, err := svc.GetDaily(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetDaily failed: %v", err)
	}
	second, err := svc.GetDaily(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetDaily failed: %v", err)
	}

	if repo.upserts != 5 {
		t.Errorf("second fetch must reuse persisted days, got %d upserts", repo.upserts)
	}
	for i := range first {
		if first[i].Impressions != second[i].Impressions || first[i].Engagements != second[i].Engagements {
			t.Errorf("day %s changed between fetches", first[i].Day.Format("2006-01-02"))
		}
	}
}

func TestSynthesizeDayDeterministic(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	a := synthesizeDay(day)
	b := synthesizeDay(day)
	if a.Impressions != b.Impressions || a.Engagements != b.Engagements ||
		a.FollowerDelta != b.FollowerDelta || a.PostsPublished != b.PostsPublished {
		t.Errorf("same day synthesized differently: %+v vs %+v", a, b)
	}
	if a.Engagements >= a.Impressions {
		t.Errorf("engagements must be a fraction of impressions: %+v", a)
	}
}

func TestGetSummaryAggregates(t *testing.T) {
	repo := newMockSnapshotRepo()
	svc := newTestService(repo)

	summary, err := svc.GetSummary(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary.Days != 10 {
		t.Errorf("expected 10 days, got %d", summary.Days)
	}
	if summary.Impressions <= 0 || summary.Engagements <= 0 {
		t.Errorf("expected positive totals, got %+v", summary)
	}
	if summary.EngagementRate <= 0 || summary.EngagementRate > 10 {
		t.Errorf("engagement rate out of range: %v", summary.EngagementRate)
	}
	if summary.BestDay == "" {
		t.Error("expected a best day")
	}
}
