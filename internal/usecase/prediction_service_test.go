package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/LZ26/esports-analytics/internal/domain/team"
	"github.com/LZ26/esports-analytics/internal/infrastructure/repository/memory"
	"github.com/LZ26/esports-analytics/internal/platform/logging"
)

func newTestPredictionService(t *testing.T) (*PredictionService, *memory.TeamRepository) {
	t.Helper()

	teamRepo := memory.NewTeamRepository()
	for id, name := range map[int64]string{1: "Alpha", 2: "Bravo"} {
		err := teamRepo.Create(context.Background(), team.Team{ExternalID: id, Name: name, LastSyncedAt: time.Now().UTC()})
		if err != nil {
			t.Fatalf("create team %d: %v", id, err)
		}
	}

	return NewPredictionService(teamRepo, logging.NewNop()), teamRepo
}

func saveAnalysis(t *testing.T, repo *memory.TeamRepository, item team.Analysis) {
	t.Helper()
	if err := repo.SaveAnalysis(context.Background(), item); err != nil {
		t.Fatalf("SaveAnalysis error: %v", err)
	}
}

func floatPtr(v float64) *float64 { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPredictionService_Predict_WeightedFactors(t *testing.T) {
	t.Parallel()

	svc, teamRepo := newTestPredictionService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// Home: win rate 0.7, h2h 0.6 against away, rested for five days.
	saveAnalysis(t, teamRepo, team.Analysis{
		TeamExternalID: 1,
		LastTenWinRate: floatPtr(0.7),
		H2HAdvantage:   map[int64]float64{2: 0.6},
		LastMatchAt:    timePtr(now.Add(-120 * time.Hour)),
		ComputedAt:     now,
	})
	// Away: win rate 0.5, played two hours ago. Its own advantage map is
	// never consulted; the away side scores with 1-h2h.
	saveAnalysis(t, teamRepo, team.Analysis{
		TeamExternalID: 2,
		LastTenWinRate: floatPtr(0.5),
		LastMatchAt:    timePtr(now.Add(-2 * time.Hour)),
		ComputedAt:     now,
	})

	prediction, err := svc.Predict(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if !almostEqual(prediction.Factors.H2H, 0.6) {
		t.Fatalf("expected shared h2h 0.6, got %v", prediction.Factors.H2H)
	}
	if !almostEqual(prediction.HomeScore, 0.70) {
		t.Fatalf("expected home score 0.70, got %v", prediction.HomeScore)
	}
	if !almostEqual(prediction.AwayScore, 0.42) {
		t.Fatalf("expected away score 0.42, got %v", prediction.AwayScore)
	}
	if prediction.Winner == nil || prediction.Winner.ExternalID != 1 {
		t.Fatalf("expected home winner, got %+v", prediction.Winner)
	}
	if !almostEqual(prediction.Confidence, 0.70/1.12) {
		t.Fatalf("expected confidence 0.625, got %v", prediction.Confidence)
	}
}

func TestPredictionService_Predict_SharedH2HWithMissingAwayAnalysis(t *testing.T) {
	t.Parallel()

	svc, teamRepo := newTestPredictionService(t)

	// Home has a poor recent run but a perfect head-to-head record against
	// away; away has the better form and no h2h entry of its own. The away
	// side must score with the complement of home's h2h, not a neutral 0.5.
	saveAnalysis(t, teamRepo, team.Analysis{
		TeamExternalID: 1,
		LastTenWinRate: floatPtr(0.3),
		H2HAdvantage:   map[int64]float64{2: 1.0},
	})
	saveAnalysis(t, teamRepo, team.Analysis{
		TeamExternalID: 2,
		LastTenWinRate: floatPtr(0.65),
	})

	prediction, err := svc.Predict(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if !almostEqual(prediction.Factors.H2H, 1.0) {
		t.Fatalf("expected shared h2h 1.0, got %v", prediction.Factors.H2H)
	}
	if !almostEqual(prediction.HomeScore, 0.58) {
		t.Fatalf("expected home score 0.58, got %v", prediction.HomeScore)
	}
	if !almostEqual(prediction.AwayScore, 0.49) {
		t.Fatalf("expected away score 0.49, got %v", prediction.AwayScore)
	}
	if prediction.Winner == nil || prediction.Winner.ExternalID != 1 {
		t.Fatalf("expected the h2h edge to carry home, got %+v", prediction.Winner)
	}
}

func TestPredictionService_Predict_NeutralDefaultsAndTieBreak(t *testing.T) {
	t.Parallel()

	svc, _ := newTestPredictionService(t)

	// Neither team has computed analytics: both factors collapse to the
	// neutral defaults and the tie goes to the away side.
	prediction, err := svc.Predict(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if !almostEqual(prediction.HomeScore, prediction.AwayScore) {
		t.Fatalf("expected a symmetric matchup, got %v vs %v", prediction.HomeScore, prediction.AwayScore)
	}
	if prediction.Winner == nil || prediction.Winner.ExternalID != 2 {
		t.Fatalf("tie must resolve to the away team, got %+v", prediction.Winner)
	}
	if !almostEqual(prediction.Confidence, 0.5) {
		t.Fatalf("expected confidence 0.5 on a tie, got %v", prediction.Confidence)
	}
}

func TestPredictionService_Predict_FatigueSteps(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		since time.Duration
		want  float64
	}{
		{"under one day", 23*time.Hour + 59*time.Minute, 0.0},
		{"one day", 24 * time.Hour, 0.25},
		{"under two days", 47*time.Hour + 59*time.Minute, 0.25},
		{"two days", 48 * time.Hour, 0.5},
		{"three days", 72 * time.Hour, 0.75},
		{"under four days", 95*time.Hour + 59*time.Minute, 0.75},
		{"four days", 96 * time.Hour, 1.0},
		{"a week", 7 * 24 * time.Hour, 1.0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			lastMatch := now.Add(-tc.since)
			if got := fatigueFactor(&lastMatch, now); got != tc.want {
				t.Fatalf("fatigue after %s: expected %v, got %v", tc.since, tc.want, got)
			}
		})
	}

	if got := fatigueFactor(nil, now); got != 1.0 {
		t.Fatalf("no recorded match must score 1.0, got %v", got)
	}
}

func TestPredictionService_Predict_InputValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestPredictionService(t)

	if _, err := svc.Predict(context.Background(), 1, 1); err == nil {
		t.Fatalf("expected error for a team playing itself")
	}
	if _, err := svc.Predict(context.Background(), 1, 404); err == nil {
		t.Fatalf("expected error for unknown away team")
	}
}
