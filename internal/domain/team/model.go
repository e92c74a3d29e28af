package team

import (
	"fmt"
	"time"
)

// Team is one competitive roster tracked by the pipeline. The provider's id
// is the natural key; rows are never deleted by ingestion.
type Team struct {
	ExternalID   int64
	Name         string
	Slug         string
	ImageURL     string
	LastSyncedAt time.Time
}

func (t Team) Validate() error {
	if t.ExternalID <= 0 {
		return fmt.Errorf("team external id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}

// Analysis holds the rolling statistics for one team. A zero-valued row is
// created together with its Team; only the analytics recompute mutates it.
type Analysis struct {
	TeamExternalID int64
	// LastTenWinRate is nil until the first recompute.
	LastTenWinRate *float64
	// H2HAdvantage maps an opponent's external id to this team's win rate
	// against them. Absent entries mean "unknown".
	H2HAdvantage map[int64]float64
	LastMatchAt  *time.Time
	// ComputedAt is zero until the first recompute; selection treats a
	// never-computed row the same as a missing one.
	ComputedAt time.Time
}

func (a Analysis) Validate() error {
	if a.TeamExternalID <= 0 {
		return fmt.Errorf("analysis team external id is required")
	}
	if a.LastTenWinRate != nil && (*a.LastTenWinRate < 0 || *a.LastTenWinRate > 1) {
		return fmt.Errorf("analysis win rate must be within [0,1]")
	}
	for opponentID, rate := range a.H2HAdvantage {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("analysis h2h rate for opponent %d must be within [0,1]", opponentID)
		}
	}

	return nil
}
