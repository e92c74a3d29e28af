package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LZ26/esports-analytics/internal/domain/team"
)

type TeamRepository struct {
	mu       sync.RWMutex
	teams    map[int64]team.Team
	analyses map[int64]team.Analysis
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{
		teams:    make(map[int64]team.Team),
		analyses: make(map[int64]team.Analysis),
	}
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.teams))
	for _, item := range r.teams {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExternalID < out[j].ExternalID
	})

	return out, nil
}

func (r *TeamRepository) ListDueForUpdate(_ context.Context, olderThan time.Time) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.teams))
	for externalID, item := range r.teams {
		analysis, ok := r.analyses[externalID]
		if ok && !analysis.ComputedAt.IsZero() && !analysis.ComputedAt.Before(olderThan) {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExternalID < out[j].ExternalID
	})

	return out, nil
}

func (r *TeamRepository) GetByExternalID(_ context.Context, externalID int64) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.teams[externalID]
	return item, ok, nil
}

func (r *TeamRepository) Create(_ context.Context, item team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.teams[item.ExternalID] = item
	if _, ok := r.analyses[item.ExternalID]; !ok {
		r.analyses[item.ExternalID] = team.Analysis{TeamExternalID: item.ExternalID}
	}

	return nil
}

func (r *TeamRepository) Update(_ context.Context, item team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.teams[item.ExternalID] = item
	return nil
}

func (r *TeamRepository) GetAnalysis(_ context.Context, teamExternalID int64) (team.Analysis, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.analyses[teamExternalID]
	return cloneAnalysis(item), ok, nil
}

func (r *TeamRepository) SaveAnalysis(_ context.Context, item team.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.analyses[item.TeamExternalID] = cloneAnalysis(item)
	return nil
}

// cloneAnalysis copies the h2h map so callers never share mutable state
// with the store.
func cloneAnalysis(item team.Analysis) team.Analysis {
	if item.H2HAdvantage == nil {
		return item
	}
	rates := make(map[int64]float64, len(item.H2HAdvantage))
	for opponentID, rate := range item.H2HAdvantage {
		rates[opponentID] = rate
	}
	item.H2HAdvantage = rates
	return item
}
