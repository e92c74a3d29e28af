package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/LZ26/esports-analytics/internal/domain/team"
	"github.com/LZ26/esports-analytics/internal/platform/logging"
)

// Factor weights. Recent form dominates, head-to-head refines, rest state
// nudges.
const (
	winRateWeight = 0.6
	h2hWeight     = 0.3
	fatigueWeight = 0.1
)

// Neutral fallbacks for teams with no computed analysis.
const (
	defaultWinRate = 0.5
	defaultH2H     = 0.5
	defaultFatigue = 1.0
)

// PredictionFactors exposes the inputs behind a prediction so callers can
// explain the outcome.
type PredictionFactors struct {
	HomeWinRate float64
	AwayWinRate float64
	// H2H is one shared value from the home team's advantage map keyed by
	// the away id; the away side scores with its complement.
	H2H         float64
	HomeFatigue float64
	AwayFatigue float64
}

type Prediction struct {
	Winner     *team.Team
	Confidence float64
	HomeScore  float64
	AwayScore  float64
	Factors    PredictionFactors
}

// PredictionService scores two teams against each other from their stored
// analyses. It never writes; analyses missing at prediction time fall back
// to neutral values instead of triggering a recompute.
type PredictionService struct {
	teamRepo team.Repository
	logger   *logging.Logger
	now      func() time.Time
}

func NewPredictionService(teamRepo team.Repository, logger *logging.Logger) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PredictionService{
		teamRepo: teamRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// Predict scores home against away. Confidence is the winning share of the
// combined score; a tie goes to the away side, so home must strictly
// outscore away to be predicted.
func (s *PredictionService) Predict(ctx context.Context, homeExternalID, awayExternalID int64) (Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Predict")
	defer span.End()

	if homeExternalID <= 0 || awayExternalID <= 0 {
		return Prediction{}, fmt.Errorf("%w: both team external ids are required", ErrInvalidInput)
	}
	if homeExternalID == awayExternalID {
		return Prediction{}, fmt.Errorf("%w: a team cannot play itself", ErrInvalidInput)
	}

	home, found, err := s.teamRepo.GetByExternalID(ctx, homeExternalID)
	if err != nil {
		return Prediction{}, fmt.Errorf("get team external_id=%d: %w", homeExternalID, err)
	}
	if !found {
		return Prediction{}, fmt.Errorf("%w: team external_id=%d", ErrNotFound, homeExternalID)
	}
	away, found, err := s.teamRepo.GetByExternalID(ctx, awayExternalID)
	if err != nil {
		return Prediction{}, fmt.Errorf("get team external_id=%d: %w", awayExternalID, err)
	}
	if !found {
		return Prediction{}, fmt.Errorf("%w: team external_id=%d", ErrNotFound, awayExternalID)
	}

	homeAnalysis, err := s.loadAnalysis(ctx, homeExternalID)
	if err != nil {
		return Prediction{}, err
	}
	awayAnalysis, err := s.loadAnalysis(ctx, awayExternalID)
	if err != nil {
		return Prediction{}, err
	}

	asOf := s.now().UTC()
	factors := PredictionFactors{
		HomeWinRate: winRateFactor(homeAnalysis),
		AwayWinRate: winRateFactor(awayAnalysis),
		H2H:         h2hFactor(homeAnalysis, awayExternalID),
		HomeFatigue: fatigueFactor(homeAnalysis.LastMatchAt, asOf),
		AwayFatigue: fatigueFactor(awayAnalysis.LastMatchAt, asOf),
	}

	homeScore := winRateWeight*factors.HomeWinRate + h2hWeight*factors.H2H + fatigueWeight*factors.HomeFatigue
	awayScore := winRateWeight*factors.AwayWinRate + h2hWeight*(1-factors.H2H) + fatigueWeight*factors.AwayFatigue

	prediction := Prediction{
		Confidence: 0.5,
		HomeScore:  homeScore,
		AwayScore:  awayScore,
		Factors:    factors,
	}

	total := homeScore + awayScore
	if total > 0 {
		if homeScore > awayScore {
			prediction.Winner = &home
			prediction.Confidence = homeScore / total
		} else {
			prediction.Winner = &away
			prediction.Confidence = awayScore / total
		}
	}

	s.logger.DebugContext(ctx, "predicted match outcome",
		"home_id", homeExternalID,
		"away_id", awayExternalID,
		"home_score", homeScore,
		"away_score", awayScore,
		"confidence", prediction.Confidence,
	)
	return prediction, nil
}

// loadAnalysis returns the stored analysis, or a zero Analysis for teams
// that have none yet. The zero value maps to neutral factors below.
func (s *PredictionService) loadAnalysis(ctx context.Context, teamExternalID int64) (team.Analysis, error) {
	analysis, found, err := s.teamRepo.GetAnalysis(ctx, teamExternalID)
	if err != nil {
		return team.Analysis{}, fmt.Errorf("get analysis for team %d: %w", teamExternalID, err)
	}
	if !found {
		return team.Analysis{TeamExternalID: teamExternalID}, nil
	}
	return analysis, nil
}

func winRateFactor(analysis team.Analysis) float64 {
	if analysis.LastTenWinRate == nil {
		return defaultWinRate
	}
	return *analysis.LastTenWinRate
}

func h2hFactor(analysis team.Analysis, opponentExternalID int64) float64 {
	rate, ok := analysis.H2HAdvantage[opponentExternalID]
	if !ok {
		return defaultH2H
	}
	return rate
}

// fatigueFactor rates rest since the last match in discrete steps: under a
// day scores 0.0, then 0.25 per additional full day up to 1.0 at four or
// more days. A team with no recorded match is treated as fully rested.
func fatigueFactor(lastMatchAt *time.Time, asOf time.Time) float64 {
	if lastMatchAt == nil || lastMatchAt.IsZero() {
		return defaultFatigue
	}

	hours := asOf.Sub(*lastMatchAt).Hours()
	switch {
	case hours < 24:
		return 0.0
	case hours < 48:
		return 0.25
	case hours < 72:
		return 0.5
	case hours < 96:
		return 0.75
	default:
		return 1.0
	}
}
