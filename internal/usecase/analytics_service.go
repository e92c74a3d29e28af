package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/LZ26/esports-analytics/internal/domain/history"
	"github.com/LZ26/esports-analytics/internal/domain/team"
	"github.com/LZ26/esports-analytics/internal/platform/logging"
)

// recentWindow is how many most-recent matches feed the win-rate figure.
const recentWindow = 10

// AnalyticsService derives per-team aggregates from stored match history.
type AnalyticsService struct {
	teamRepo    team.Repository
	historyRepo history.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewAnalyticsService(
	teamRepo team.Repository,
	historyRepo history.Repository,
	logger *logging.Logger,
) *AnalyticsService {
	if logger == nil {
		logger = logging.Default()
	}

	return &AnalyticsService{
		teamRepo:    teamRepo,
		historyRepo: historyRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Recompute rebuilds the team's analysis from stored history and writes all
// derived fields in one save. The second return value reports whether a
// fresh analysis was written: with no stored matches it is false and the
// existing analysis is returned untouched, an empty window never resets a
// previously computed one.
func (s *AnalyticsService) Recompute(ctx context.Context, teamExternalID int64) (team.Analysis, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AnalyticsService.Recompute")
	defer span.End()

	if teamExternalID <= 0 {
		return team.Analysis{}, false, fmt.Errorf("%w: team external id is required", ErrInvalidInput)
	}

	subject, found, err := s.teamRepo.GetByExternalID(ctx, teamExternalID)
	if err != nil {
		return team.Analysis{}, false, fmt.Errorf("get team external_id=%d: %w", teamExternalID, err)
	}
	if !found {
		return team.Analysis{}, false, fmt.Errorf("%w: team external_id=%d", ErrNotFound, teamExternalID)
	}

	recent, err := s.historyRepo.ListRecentByTeam(ctx, teamExternalID, recentWindow)
	if err != nil {
		return team.Analysis{}, false, fmt.Errorf("list recent matches for team %d: %w", teamExternalID, err)
	}
	if len(recent) == 0 {
		s.logger.InfoContext(ctx, "no stored matches for team, keeping existing analysis", "team_id", teamExternalID, "name", subject.Name)
		existing, _, err := s.teamRepo.GetAnalysis(ctx, teamExternalID)
		if err != nil {
			return team.Analysis{}, false, fmt.Errorf("get analysis for team %d: %w", teamExternalID, err)
		}
		return existing, false, nil
	}

	wins := 0
	for _, item := range recent {
		if item.WinnerID == teamExternalID {
			wins++
		}
	}
	winRate := float64(wins) / float64(len(recent))

	// recent is newest first, so the first entry is the last match played.
	lastMatchAt := recent[0].PlayedAt

	all, err := s.historyRepo.ListByTeam(ctx, teamExternalID)
	if err != nil {
		return team.Analysis{}, false, fmt.Errorf("list matches for team %d: %w", teamExternalID, err)
	}

	analysis := team.Analysis{
		TeamExternalID: teamExternalID,
		LastTenWinRate: &winRate,
		H2HAdvantage:   headToHeadRates(teamExternalID, all),
		LastMatchAt:    &lastMatchAt,
		ComputedAt:     s.now().UTC(),
	}
	if err := analysis.Validate(); err != nil {
		return team.Analysis{}, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.teamRepo.SaveAnalysis(ctx, analysis); err != nil {
		return team.Analysis{}, false, fmt.Errorf("save analysis for team %d: %w", teamExternalID, err)
	}

	s.logger.InfoContext(ctx, "recomputed team analysis",
		"team_id", teamExternalID,
		"name", subject.Name,
		"win_rate", winRate,
		"window", len(recent),
	)
	return analysis, true, nil
}

// headToHeadRates computes, for each opponent the team has faced, the share
// of those meetings the team won.
func headToHeadRates(teamExternalID int64, matches []history.Match) map[int64]float64 {
	meetings := make(map[int64]int)
	wins := make(map[int64]int)
	for _, item := range matches {
		for _, opponentID := range item.TeamIDs {
			if opponentID == teamExternalID {
				continue
			}
			meetings[opponentID]++
			if item.WinnerID == teamExternalID {
				wins[opponentID]++
			}
		}
	}

	rates := make(map[int64]float64, len(meetings))
	for opponentID, total := range meetings {
		rates[opponentID] = float64(wins[opponentID]) / float64(total)
	}
	return rates
}
