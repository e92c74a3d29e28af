package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/LZ26/esports-analytics/internal/domain/team"
	"github.com/LZ26/esports-analytics/internal/platform/logging"
)

const (
	updateStatusSuccess = "success"
	updateStatusFailed  = "failed"
	updateStatusSkipped = "skipped"
)

type UpdateInput struct {
	// TeamExternalID narrows the run to a single team.
	TeamExternalID int64
	// Force refreshes every stored team regardless of staleness.
	Force      bool
	MaxWorkers int
}

type UpdateResult struct {
	TeamCount    int                `json:"team_count"`
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	SkippedCount int                `json:"skipped_count"`
	WorkerCount  int                `json:"worker_count"`
	Teams        []TeamUpdateResult `json:"teams"`
}

type TeamUpdateResult struct {
	TeamExternalID int64  `json:"team_external_id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Stored         int    `json:"stored"`
	DurationMs     int64  `json:"duration_ms"`
	Message        string `json:"message,omitempty"`
}

// UpdateServiceConfig carries the scheduling knobs.
type UpdateServiceConfig struct {
	// StaleAfter is how old an analysis may get before the default run
	// refreshes it.
	StaleAfter time.Duration
	// MaxWorkers caps the team worker pool when the input does not.
	MaxWorkers int
}

func (c UpdateServiceConfig) normalize() UpdateServiceConfig {
	if c.StaleAfter <= 0 {
		c.StaleAfter = 24 * time.Hour
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 1
	}
	return c
}

// UpdateService drives full refresh cycles: fetch history per team, store
// new matches, recompute the analysis. Team failures are isolated to their
// own row; one team's provider error never aborts the batch.
type UpdateService struct {
	provider  MatchDataProvider
	teamRepo  team.Repository
	reconcile *ReconcileService
	analytics *AnalyticsService
	cfg       UpdateServiceConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewUpdateService(
	provider MatchDataProvider,
	teamRepo team.Repository,
	reconcile *ReconcileService,
	analytics *AnalyticsService,
	cfg UpdateServiceConfig,
	logger *logging.Logger,
) *UpdateService {
	if logger == nil {
		logger = logging.Default()
	}

	return &UpdateService{
		provider:  provider,
		teamRepo:  teamRepo,
		reconcile: reconcile,
		analytics: analytics,
		cfg:       cfg.normalize(),
		logger:    logger,
		now:       time.Now,
	}
}

// Run selects the target teams and refreshes each one through the worker
// pool. Default selection is teams whose analysis is older than StaleAfter
// or was never computed; Force widens that to every stored team, and a
// team id narrows it to one.
func (s *UpdateService) Run(ctx context.Context, input UpdateInput) (UpdateResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpdateService.Run")
	defer span.End()

	if s.provider == nil || s.teamRepo == nil || s.reconcile == nil || s.analytics == nil {
		return UpdateResult{}, fmt.Errorf("%w: update service is not fully configured", ErrDependencyUnavailable)
	}

	targets, err := s.selectTargets(ctx, input)
	if err != nil {
		return UpdateResult{}, err
	}

	workerCount := normalizeUpdateWorkerCount(firstPositive(input.MaxWorkers, s.cfg.MaxWorkers), len(targets))
	result := UpdateResult{
		TeamCount:   len(targets),
		WorkerCount: workerCount,
		Teams:       make([]TeamUpdateResult, 0, len(targets)),
	}
	if len(targets) == 0 {
		s.logger.InfoContext(ctx, "no teams due for update")
		return result, nil
	}

	results := make(chan TeamUpdateResult, len(targets))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, target := range targets {
		target := target
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := s.updateTeam(ctx, target)
			row.DurationMs = time.Since(start).Milliseconds()

			switch row.Status {
			case updateStatusSuccess:
				successCount.Add(1)
			case updateStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return UpdateResult{}, fmt.Errorf("submit team to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Teams = append(result.Teams, row)
	}

	sort.SliceStable(result.Teams, func(i, j int) bool {
		return result.Teams[i].TeamExternalID < result.Teams[j].TeamExternalID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())

	s.logger.InfoContext(ctx, "update run finished",
		"teams", result.TeamCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
		"workers", result.WorkerCount,
	)
	return result, nil
}

func (s *UpdateService) selectTargets(ctx context.Context, input UpdateInput) ([]team.Team, error) {
	if input.TeamExternalID > 0 {
		item, found, err := s.teamRepo.GetByExternalID(ctx, input.TeamExternalID)
		if err != nil {
			return nil, fmt.Errorf("get team external_id=%d: %w", input.TeamExternalID, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: team external_id=%d", ErrNotFound, input.TeamExternalID)
		}
		return []team.Team{item}, nil
	}

	if input.Force {
		items, err := s.teamRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list teams: %w", err)
		}
		return items, nil
	}

	cutoff := s.now().UTC().Add(-s.cfg.StaleAfter)
	items, err := s.teamRepo.ListDueForUpdate(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list teams due for update: %w", err)
	}
	return items, nil
}

func (s *UpdateService) updateTeam(ctx context.Context, target team.Team) TeamUpdateResult {
	row := TeamUpdateResult{
		TeamExternalID: target.ExternalID,
		Name:           target.Name,
	}

	records, err := s.provider.FetchTeamHistory(ctx, target.ExternalID)
	if err != nil {
		row.Status = updateStatusFailed
		row.Message = fmt.Sprintf("fetch history: %v", err)
		s.logger.ErrorContext(ctx, "team history fetch failed", "team_id", target.ExternalID, "name", target.Name, "error", err)
		return row
	}

	if len(records) > 0 {
		stored, err := s.reconcile.StoreHistoricalMatches(ctx, records)
		if err != nil {
			row.Status = updateStatusFailed
			row.Message = fmt.Sprintf("store history: %v", err)
			return row
		}
		row.Stored = stored.Stored
	}

	// Recompute runs even when this fetch came back empty; the team may
	// already hold matches stored through its opponents' fetches.
	_, computed, err := s.analytics.Recompute(ctx, target.ExternalID)
	if err != nil {
		row.Status = updateStatusFailed
		row.Message = fmt.Sprintf("recompute analysis: %v", err)
		s.logger.ErrorContext(ctx, "team analysis recompute failed", "team_id", target.ExternalID, "name", target.Name, "error", err)
		return row
	}
	if !computed {
		row.Status = updateStatusSkipped
		row.Message = "no stored history to analyze"
		return row
	}

	row.Status = updateStatusSuccess
	return row
}

// SyncLiveMatches pulls the live and upcoming board for one game and
// reconciles it, creating teams on first sight.
func (s *UpdateService) SyncLiveMatches(ctx context.Context, game string) (LiveStoreResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpdateService.SyncLiveMatches")
	defer span.End()

	if s.provider == nil || s.reconcile == nil {
		return LiveStoreResult{}, fmt.Errorf("%w: update service is not fully configured", ErrDependencyUnavailable)
	}

	records, err := s.provider.FetchLiveMatches(ctx, game)
	if err != nil {
		return LiveStoreResult{}, fmt.Errorf("fetch live matches game=%s: %w", game, err)
	}

	return s.reconcile.UpsertLiveMatches(ctx, records)
}

func normalizeUpdateWorkerCount(value int, teamCount int) int {
	if teamCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > teamCount {
		value = teamCount
	}
	return value
}

func firstPositive(values ...int) int {
	for _, value := range values {
		if value > 0 {
			return value
		}
	}
	return 0
}
