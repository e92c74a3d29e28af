package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LZ26/esports-analytics/internal/domain/history"
	"github.com/LZ26/esports-analytics/internal/domain/match"
	"github.com/LZ26/esports-analytics/internal/domain/team"
	"github.com/LZ26/esports-analytics/internal/platform/logging"
)

// StoreOutcome classifies what happened to one record during reconciliation.
// Skips are normal operation, not errors; tests assert on them directly.
type StoreOutcome string

const (
	OutcomeStored               StoreOutcome = "stored"
	OutcomeDuplicate            StoreOutcome = "duplicate"
	OutcomeInsufficientTeams    StoreOutcome = "insufficient_teams"
	OutcomeWinnerNotFound       StoreOutcome = "winner_not_found"
	OutcomeWinnerNotParticipant StoreOutcome = "winner_not_participant"
	OutcomeMissingTeam          StoreOutcome = "missing_team"
	OutcomeMissingStartTime     StoreOutcome = "missing_start_time"
	OutcomeFailed               StoreOutcome = "failed"
)

type HistoricalRecordResult struct {
	ExternalID string
	Outcome    StoreOutcome
	Message    string
}

type HistoricalStoreResult struct {
	Stored  int
	Records []HistoricalRecordResult
}

// CountByOutcome tallies record results for assertions and logs.
func (r HistoricalStoreResult) CountByOutcome(outcome StoreOutcome) int {
	count := 0
	for _, record := range r.Records {
		if record.Outcome == outcome {
			count++
		}
	}
	return count
}

type LiveRecordResult struct {
	ExternalID int64
	Outcome    StoreOutcome
	Message    string
}

type LiveStoreResult struct {
	Stored  int
	Records []LiveRecordResult
}

// Persisted reports whether at least one record was written this cycle.
func (r LiveStoreResult) Persisted() bool {
	return r.Stored > 0
}

// ReconcileService turns normalized provider records into durable entities.
// Every per-record failure is isolated: one bad record never blocks the
// rest of its batch.
type ReconcileService struct {
	teamRepo    team.Repository
	historyRepo history.Repository
	matchRepo   match.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewReconcileService(
	teamRepo team.Repository,
	historyRepo history.Repository,
	matchRepo match.Repository,
	logger *logging.Logger,
) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ReconcileService{
		teamRepo:    teamRepo,
		historyRepo: historyRepo,
		matchRepo:   matchRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// UpsertTeam gets or creates a team by external id. Creation also creates
// the team's zero-valued analysis row. An existing team is written only
// when at least one of name/slug/image drifted.
func (s *ReconcileService) UpsertTeam(ctx context.Context, raw ExternalTeam) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.UpsertTeam")
	defer span.End()

	if raw.ExternalID <= 0 {
		return team.Team{}, fmt.Errorf("%w: team external id is required", ErrInvalidInput)
	}

	existing, found, err := s.teamRepo.GetByExternalID(ctx, raw.ExternalID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team external_id=%d: %w", raw.ExternalID, err)
	}

	if !found {
		created := team.Team{
			ExternalID:   raw.ExternalID,
			Name:         fallbackTeamName(raw.Name),
			Slug:         strings.TrimSpace(raw.Slug),
			ImageURL:     strings.TrimSpace(raw.ImageURL),
			LastSyncedAt: s.now().UTC(),
		}
		if err := created.Validate(); err != nil {
			return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := s.teamRepo.Create(ctx, created); err != nil {
			return team.Team{}, fmt.Errorf("create team external_id=%d: %w", raw.ExternalID, err)
		}
		s.logger.DebugContext(ctx, "created team", "external_id", created.ExternalID, "name", created.Name)
		return created, nil
	}

	updated := existing
	changed := false
	if name := strings.TrimSpace(raw.Name); name != "" && name != existing.Name {
		updated.Name = name
		changed = true
	}
	if slug := strings.TrimSpace(raw.Slug); slug != existing.Slug {
		updated.Slug = slug
		changed = true
	}
	if imageURL := strings.TrimSpace(raw.ImageURL); imageURL != existing.ImageURL {
		updated.ImageURL = imageURL
		changed = true
	}
	if !changed {
		return existing, nil
	}

	updated.LastSyncedAt = s.now().UTC()
	if err := s.teamRepo.Update(ctx, updated); err != nil {
		return team.Team{}, fmt.Errorf("update team external_id=%d: %w", raw.ExternalID, err)
	}
	return updated, nil
}

// StoreHistoricalMatches creates one row per new, referentially valid record.
// Dedup is by external id; the winner must resolve to a stored team and be
// one of the resolved participants.
func (s *ReconcileService) StoreHistoricalMatches(ctx context.Context, records []ExternalHistoricalMatch) (HistoricalStoreResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.StoreHistoricalMatches")
	defer span.End()

	result := HistoricalStoreResult{
		Records: make([]HistoricalRecordResult, 0, len(records)),
	}

	for _, record := range records {
		row := s.storeHistoricalMatch(ctx, record)
		if row.Outcome == OutcomeStored {
			result.Stored++
		}
		result.Records = append(result.Records, row)
	}

	return result, nil
}

func (s *ReconcileService) storeHistoricalMatch(ctx context.Context, record ExternalHistoricalMatch) HistoricalRecordResult {
	row := HistoricalRecordResult{ExternalID: record.ExternalID}

	exists, err := s.historyRepo.Exists(ctx, record.ExternalID)
	if err != nil {
		row.Outcome = OutcomeFailed
		row.Message = fmt.Sprintf("check duplicate: %v", err)
		s.logger.ErrorContext(ctx, "historical match dedup check failed", "match_id", record.ExternalID, "error", err)
		return row
	}
	if exists {
		row.Outcome = OutcomeDuplicate
		return row
	}

	resolved := make([]int64, 0, len(record.TeamIDs))
	for _, teamID := range record.TeamIDs {
		_, found, err := s.teamRepo.GetByExternalID(ctx, teamID)
		if err != nil {
			row.Outcome = OutcomeFailed
			row.Message = fmt.Sprintf("resolve team %d: %v", teamID, err)
			return row
		}
		if found {
			resolved = append(resolved, teamID)
		}
	}
	if len(resolved) < 2 {
		row.Outcome = OutcomeInsufficientTeams
		row.Message = fmt.Sprintf("resolved %d of %d teams", len(resolved), len(record.TeamIDs))
		s.logger.WarnContext(ctx, "skipping historical match: insufficient teams", "match_id", record.ExternalID)
		return row
	}

	_, winnerFound, err := s.teamRepo.GetByExternalID(ctx, record.WinnerID)
	if err != nil {
		row.Outcome = OutcomeFailed
		row.Message = fmt.Sprintf("resolve winner %d: %v", record.WinnerID, err)
		return row
	}
	if !winnerFound {
		row.Outcome = OutcomeWinnerNotFound
		s.logger.WarnContext(ctx, "skipping historical match: winner not found", "match_id", record.ExternalID, "winner_id", record.WinnerID)
		return row
	}

	item := history.Match{
		ExternalID: record.ExternalID,
		TeamIDs:    resolved,
		WinnerID:   record.WinnerID,
		PlayedAt:   record.PlayedAt,
		Tournament: record.Tournament,
		SyncedAt:   s.now().UTC(),
	}
	if !item.HasParticipant(record.WinnerID) {
		row.Outcome = OutcomeWinnerNotParticipant
		s.logger.WarnContext(ctx, "skipping historical match: winner is not a participant", "match_id", record.ExternalID, "winner_id", record.WinnerID)
		return row
	}
	if err := item.Validate(); err != nil {
		row.Outcome = OutcomeFailed
		row.Message = err.Error()
		return row
	}

	if err := s.historyRepo.Create(ctx, item); err != nil {
		row.Outcome = OutcomeFailed
		row.Message = fmt.Sprintf("create: %v", err)
		s.logger.ErrorContext(ctx, "failed to create historical match", "match_id", record.ExternalID, "error", err)
		return row
	}

	row.Outcome = OutcomeStored
	return row
}

// UpsertLiveMatches upserts live/upcoming matches by external id. Records
// missing either opponent or a start time are skipped before any write.
// Sighted opponents are upserted as teams first, so a team exists from its
// first appearance in any payload.
func (s *ReconcileService) UpsertLiveMatches(ctx context.Context, records []ExternalLiveMatch) (LiveStoreResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.UpsertLiveMatches")
	defer span.End()

	result := LiveStoreResult{
		Records: make([]LiveRecordResult, 0, len(records)),
	}

	for _, record := range records {
		row := s.upsertLiveMatch(ctx, record)
		if row.Outcome == OutcomeStored {
			result.Stored++
		}
		result.Records = append(result.Records, row)
	}

	s.logger.InfoContext(ctx, "live matches reconciled", "stored", result.Stored, "total", len(records))
	return result, nil
}

func (s *ReconcileService) upsertLiveMatch(ctx context.Context, record ExternalLiveMatch) LiveRecordResult {
	row := LiveRecordResult{ExternalID: record.ExternalID}

	if record.Team1 == nil || record.Team2 == nil {
		row.Outcome = OutcomeMissingTeam
		s.logger.WarnContext(ctx, "skipping live match: missing opponent", "match_id", record.ExternalID, "name", record.Name)
		return row
	}
	if record.StartTime == nil || record.StartTime.IsZero() {
		row.Outcome = OutcomeMissingStartTime
		s.logger.WarnContext(ctx, "skipping live match: missing start time", "match_id", record.ExternalID, "name", record.Name)
		return row
	}

	team1, err := s.UpsertTeam(ctx, *record.Team1)
	if err != nil {
		row.Outcome = OutcomeFailed
		row.Message = fmt.Sprintf("upsert team1: %v", err)
		return row
	}
	team2, err := s.UpsertTeam(ctx, *record.Team2)
	if err != nil {
		row.Outcome = OutcomeFailed
		row.Message = fmt.Sprintf("upsert team2: %v", err)
		return row
	}

	item := match.Match{
		ExternalID: record.ExternalID,
		Name:       record.Name,
		Team1ID:    &team1.ExternalID,
		Team2ID:    &team2.ExternalID,
		StartTime:  record.StartTime.UTC(),
		Tournament: record.Tournament,
		Status:     match.NormalizeStatus(record.Status),
		Game:       strings.ToLower(strings.TrimSpace(record.Game)),
		NextMap:    record.NextMap,
		SyncedAt:   s.now().UTC(),
	}
	if err := s.matchRepo.Upsert(ctx, item); err != nil {
		row.Outcome = OutcomeFailed
		row.Message = fmt.Sprintf("upsert: %v", err)
		s.logger.ErrorContext(ctx, "failed to upsert live match", "match_id", record.ExternalID, "error", err)
		return row
	}

	row.Outcome = OutcomeStored
	return row
}

func fallbackTeamName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Unknown Team"
	}
	return name
}
