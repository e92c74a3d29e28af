package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/LZ26/esports-analytics/internal/domain/history"
	"github.com/LZ26/esports-analytics/internal/domain/team"
	"github.com/LZ26/esports-analytics/internal/infrastructure/repository/memory"
	"github.com/LZ26/esports-analytics/internal/platform/logging"
)

func newTestAnalyticsService() (*AnalyticsService, *ReconcileService, *memory.TeamRepository, *memory.HistoryRepository) {
	teamRepo := memory.NewTeamRepository()
	historyRepo := memory.NewHistoryRepository()
	matchRepo := memory.NewMatchRepository()
	reconcile := NewReconcileService(teamRepo, historyRepo, matchRepo, logging.NewNop())
	analytics := NewAnalyticsService(teamRepo, historyRepo, logging.NewNop())
	return analytics, reconcile, teamRepo, historyRepo
}

func storeMatch(t *testing.T, repo *memory.HistoryRepository, externalID string, playedAt time.Time, teamIDs []int64, winnerID int64) {
	t.Helper()
	err := repo.Create(context.Background(), history.Match{
		ExternalID: externalID,
		TeamIDs:    teamIDs,
		WinnerID:   winnerID,
		PlayedAt:   playedAt,
		SyncedAt:   playedAt,
	})
	if err != nil {
		t.Fatalf("store match %s: %v", externalID, err)
	}
}

func TestAnalyticsService_Recompute_WinRateFromLastTen(t *testing.T) {
	t.Parallel()

	analytics, reconcile, _, historyRepo := newTestAnalyticsService()
	seedTeam(t, reconcile, 1, "Alpha")
	seedTeam(t, reconcile, 2, "Bravo")

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// 12 matches into the window: last 10 hold 7 wins and 3 losses for
	// team 1; the two oldest are losses and must not count.
	for i := 0; i < 12; i++ {
		winnerID := int64(1)
		if i < 2 || i%4 == 3 {
			winnerID = 2
		}
		storeMatch(t, historyRepo, fmt.Sprintf("m%02d", i), base.Add(time.Duration(i)*24*time.Hour), []int64{1, 2}, winnerID)
	}

	now := base.Add(30 * 24 * time.Hour)
	analytics.now = func() time.Time { return now }

	analysis, computed, err := analytics.Recompute(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recompute error: %v", err)
	}
	if !computed {
		t.Fatalf("expected a fresh analysis to be computed")
	}
	if analysis.LastTenWinRate == nil || *analysis.LastTenWinRate != 0.7 {
		t.Fatalf("expected win rate 0.7, got %v", analysis.LastTenWinRate)
	}
	wantLast := base.Add(11 * 24 * time.Hour)
	if analysis.LastMatchAt == nil || !analysis.LastMatchAt.Equal(wantLast) {
		t.Fatalf("expected last match at %v, got %v", wantLast, analysis.LastMatchAt)
	}
	if !analysis.ComputedAt.Equal(now) {
		t.Fatalf("expected computed_at %v, got %v", now, analysis.ComputedAt)
	}

	// H2H counts every stored meeting, not only the last ten: 7 wins in
	// 12 meetings against team 2.
	rate, ok := analysis.H2HAdvantage[2]
	if !ok {
		t.Fatalf("expected an h2h entry for opponent 2")
	}
	if rate != 7.0/12.0 {
		t.Fatalf("expected h2h 7/12, got %v", rate)
	}
}

func TestAnalyticsService_Recompute_EmptyWindowKeepsExistingAnalysis(t *testing.T) {
	t.Parallel()

	analytics, reconcile, teamRepo, _ := newTestAnalyticsService()
	seedTeam(t, reconcile, 1, "Alpha")

	winRate := 0.9
	lastMatch := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	seeded := team.Analysis{
		TeamExternalID: 1,
		LastTenWinRate: &winRate,
		LastMatchAt:    &lastMatch,
		ComputedAt:     lastMatch,
	}
	if err := teamRepo.SaveAnalysis(context.Background(), seeded); err != nil {
		t.Fatalf("SaveAnalysis error: %v", err)
	}

	got, computed, err := analytics.Recompute(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recompute error: %v", err)
	}
	if computed {
		t.Fatalf("expected no fresh analysis for an empty window")
	}
	if got.LastTenWinRate == nil || *got.LastTenWinRate != 0.9 {
		t.Fatalf("empty window must not reset the stored analysis, got %+v", got)
	}

	stored, _, err := teamRepo.GetAnalysis(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetAnalysis error: %v", err)
	}
	if stored.LastTenWinRate == nil || *stored.LastTenWinRate != 0.9 {
		t.Fatalf("stored analysis changed on an empty window: %+v", stored)
	}
}

func TestAnalyticsService_Recompute_UnknownTeam(t *testing.T) {
	t.Parallel()

	analytics, _, _, _ := newTestAnalyticsService()

	if _, _, err := analytics.Recompute(context.Background(), 404); err == nil {
		t.Fatalf("expected error for unknown team")
	}
}
