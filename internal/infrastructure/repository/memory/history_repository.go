package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/LZ26/esports-analytics/internal/domain/history"
)

type HistoryRepository struct {
	mu      sync.RWMutex
	matches map[string]history.Match
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{matches: make(map[string]history.Match)}
}

func (r *HistoryRepository) Exists(_ context.Context, externalID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.matches[externalID]
	return ok, nil
}

func (r *HistoryRepository) Create(_ context.Context, item history.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.matches[item.ExternalID] = cloneMatch(item)
	return nil
}

func (r *HistoryRepository) ListRecentByTeam(ctx context.Context, teamExternalID int64, limit int) ([]history.Match, error) {
	out, err := r.ListByTeam(ctx, teamExternalID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *HistoryRepository) ListByTeam(_ context.Context, teamExternalID int64) ([]history.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]history.Match, 0, len(r.matches))
	for _, item := range r.matches {
		if item.HasParticipant(teamExternalID) {
			out = append(out, cloneMatch(item))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PlayedAt.Equal(out[j].PlayedAt) {
			return out[i].PlayedAt.After(out[j].PlayedAt)
		}
		return out[i].ExternalID < out[j].ExternalID
	})

	return out, nil
}

func cloneMatch(item history.Match) history.Match {
	teamIDs := make([]int64, len(item.TeamIDs))
	copy(teamIDs, item.TeamIDs)
	item.TeamIDs = teamIDs
	return item
}
