package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/LZ26/esports-analytics/internal/infrastructure/repository/memory"
	"github.com/LZ26/esports-analytics/internal/platform/logging"
)

func newTestReconcileService() (*ReconcileService, *memory.TeamRepository, *memory.HistoryRepository, *memory.MatchRepository) {
	teamRepo := memory.NewTeamRepository()
	historyRepo := memory.NewHistoryRepository()
	matchRepo := memory.NewMatchRepository()
	svc := NewReconcileService(teamRepo, historyRepo, matchRepo, logging.NewNop())
	return svc, teamRepo, historyRepo, matchRepo
}

func seedTeam(t *testing.T, svc *ReconcileService, id int64, name string) {
	t.Helper()
	if _, err := svc.UpsertTeam(context.Background(), ExternalTeam{ExternalID: id, Name: name}); err != nil {
		t.Fatalf("seed team %d: %v", id, err)
	}
}

func TestReconcileService_UpsertTeam_CreatesTeamWithZeroAnalysis(t *testing.T) {
	t.Parallel()

	svc, teamRepo, _, _ := newTestReconcileService()

	created, err := svc.UpsertTeam(context.Background(), ExternalTeam{
		ExternalID: 42,
		Name:       "Natus Vincere",
		Slug:       "natus-vincere",
		ImageURL:   "https://cdn.example/navi.png",
	})
	if err != nil {
		t.Fatalf("UpsertTeam error: %v", err)
	}
	if created.Name != "Natus Vincere" {
		t.Fatalf("unexpected team name: %q", created.Name)
	}

	analysis, found, err := teamRepo.GetAnalysis(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetAnalysis error: %v", err)
	}
	if !found {
		t.Fatalf("expected an analysis row to exist after team creation")
	}
	if analysis.LastTenWinRate != nil || !analysis.ComputedAt.IsZero() {
		t.Fatalf("expected a zero-valued analysis, got %+v", analysis)
	}
}

func TestReconcileService_UpsertTeam_UpdatesOnlyOnDrift(t *testing.T) {
	t.Parallel()

	svc, teamRepo, _, _ := newTestReconcileService()
	firstSync := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return firstSync }

	seedTeam(t, svc, 42, "Natus Vincere")

	// Same payload again: nothing drifted, the sync timestamp must not move.
	svc.now = func() time.Time { return firstSync.Add(2 * time.Hour) }
	if _, err := svc.UpsertTeam(context.Background(), ExternalTeam{ExternalID: 42, Name: "Natus Vincere"}); err != nil {
		t.Fatalf("UpsertTeam error: %v", err)
	}
	stored, _, err := teamRepo.GetByExternalID(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetByExternalID error: %v", err)
	}
	if !stored.LastSyncedAt.Equal(firstSync) {
		t.Fatalf("expected no write without drift, sync moved to %v", stored.LastSyncedAt)
	}

	updated, err := svc.UpsertTeam(context.Background(), ExternalTeam{ExternalID: 42, Name: "NAVI"})
	if err != nil {
		t.Fatalf("UpsertTeam error: %v", err)
	}
	if updated.Name != "NAVI" {
		t.Fatalf("expected renamed team, got %q", updated.Name)
	}
	if !updated.LastSyncedAt.After(firstSync) {
		t.Fatalf("expected sync timestamp to advance on drift")
	}
}

func TestReconcileService_UpsertTeam_KeepsNameWhenProviderSendsBlank(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestReconcileService()
	seedTeam(t, svc, 42, "Natus Vincere")

	updated, err := svc.UpsertTeam(context.Background(), ExternalTeam{ExternalID: 42, Name: "  "})
	if err != nil {
		t.Fatalf("UpsertTeam error: %v", err)
	}
	if updated.Name != "Natus Vincere" {
		t.Fatalf("blank provider name must not erase the stored one, got %q", updated.Name)
	}
}

func TestReconcileService_StoreHistoricalMatches_Outcomes(t *testing.T) {
	t.Parallel()

	svc, _, historyRepo, _ := newTestReconcileService()
	seedTeam(t, svc, 1, "Alpha")
	seedTeam(t, svc, 2, "Bravo")
	seedTeam(t, svc, 3, "Charlie")

	playedAt := time.Date(2026, 2, 10, 18, 0, 0, 0, time.UTC)
	records := []ExternalHistoricalMatch{
		{ExternalID: "m1", PlayedAt: playedAt, TeamIDs: []int64{1, 2}, WinnerID: 1},
		// Only one participant resolves to a stored team.
		{ExternalID: "m2", PlayedAt: playedAt, TeamIDs: []int64{1, 999}, WinnerID: 1},
		// Winner id is not a stored team.
		{ExternalID: "m3", PlayedAt: playedAt, TeamIDs: []int64{1, 2}, WinnerID: 888},
		// Winner exists but did not play in this match.
		{ExternalID: "m4", PlayedAt: playedAt, TeamIDs: []int64{1, 2}, WinnerID: 3},
	}

	result, err := svc.StoreHistoricalMatches(context.Background(), records)
	if err != nil {
		t.Fatalf("StoreHistoricalMatches error: %v", err)
	}
	if result.Stored != 1 {
		t.Fatalf("expected 1 stored record, got %d", result.Stored)
	}
	if got := result.CountByOutcome(OutcomeInsufficientTeams); got != 1 {
		t.Fatalf("expected 1 insufficient_teams, got %d", got)
	}
	if got := result.CountByOutcome(OutcomeWinnerNotFound); got != 1 {
		t.Fatalf("expected 1 winner_not_found, got %d", got)
	}
	if got := result.CountByOutcome(OutcomeWinnerNotParticipant); got != 1 {
		t.Fatalf("expected 1 winner_not_participant, got %d", got)
	}

	for _, externalID := range []string{"m2", "m3", "m4"} {
		exists, err := historyRepo.Exists(context.Background(), externalID)
		if err != nil {
			t.Fatalf("Exists error: %v", err)
		}
		if exists {
			t.Fatalf("skipped record %s must not be persisted", externalID)
		}
	}

	// Re-running the same batch stores nothing new.
	again, err := svc.StoreHistoricalMatches(context.Background(), records)
	if err != nil {
		t.Fatalf("StoreHistoricalMatches error: %v", err)
	}
	if again.Stored != 0 {
		t.Fatalf("expected idempotent rerun, stored %d", again.Stored)
	}
	if got := again.CountByOutcome(OutcomeDuplicate); got != 1 {
		t.Fatalf("expected 1 duplicate, got %d", got)
	}
}

func TestReconcileService_UpsertLiveMatches_SkipsIncompleteRecords(t *testing.T) {
	t.Parallel()

	svc, teamRepo, _, matchRepo := newTestReconcileService()

	startTime := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	home := &ExternalTeam{ExternalID: 10, Name: "Alpha"}
	away := &ExternalTeam{ExternalID: 11, Name: "Bravo"}

	result, err := svc.UpsertLiveMatches(context.Background(), []ExternalLiveMatch{
		{ExternalID: 100, Name: "Alpha vs Bravo", Team1: home, Team2: away, StartTime: &startTime, Status: "not_started", Game: "csgo"},
		{ExternalID: 101, Name: "TBD match", Team1: home, Team2: nil, StartTime: &startTime, Status: "not_started", Game: "csgo"},
		{ExternalID: 102, Name: "No date yet", Team1: home, Team2: away, StartTime: nil, Status: "not_started", Game: "csgo"},
	})
	if err != nil {
		t.Fatalf("UpsertLiveMatches error: %v", err)
	}
	if result.Stored != 1 {
		t.Fatalf("expected 1 stored match, got %d", result.Stored)
	}
	if got := result.Records[1].Outcome; got != OutcomeMissingTeam {
		t.Fatalf("expected missing_team, got %s", got)
	}
	if got := result.Records[2].Outcome; got != OutcomeMissingStartTime {
		t.Fatalf("expected missing_start_time, got %s", got)
	}

	// Opponents of the stored match were created as teams.
	for _, teamID := range []int64{10, 11} {
		_, found, err := teamRepo.GetByExternalID(context.Background(), teamID)
		if err != nil {
			t.Fatalf("GetByExternalID error: %v", err)
		}
		if !found {
			t.Fatalf("expected team %d to be created from the live payload", teamID)
		}
	}

	stored, found, err := matchRepo.GetByExternalID(context.Background(), 100)
	if err != nil {
		t.Fatalf("GetByExternalID error: %v", err)
	}
	if !found {
		t.Fatalf("expected match 100 to be stored")
	}
	if stored.Team1ID == nil || *stored.Team1ID != 10 || stored.Team2ID == nil || *stored.Team2ID != 11 {
		t.Fatalf("unexpected opponents: %+v", stored)
	}
}
