package usecase

import (
	"context"
	"time"
)

// MatchDataProvider is the outbound port to the match-data provider. Both
// calls are read-only; history fetches may be served from a cache.
type MatchDataProvider interface {
	FetchLiveMatches(ctx context.Context, game string) ([]ExternalLiveMatch, error)
	FetchTeamHistory(ctx context.Context, teamExternalID int64) ([]ExternalHistoricalMatch, error)
}

type ExternalTeam struct {
	ExternalID int64
	Name       string
	Slug       string
	ImageURL   string
}

type ExternalLiveMatch struct {
	ExternalID int64
	Name       string
	// Opponents stay nil until the provider announces them.
	Team1      *ExternalTeam
	Team2      *ExternalTeam
	StartTime  *time.Time
	Tournament string
	Status     string
	Game       string
	NextMap    string
}

type ExternalHistoricalMatch struct {
	ExternalID string
	PlayedAt   time.Time
	Tournament string
	TeamIDs    []int64
	// WinnerID is zero when the provider omits the winner.
	WinnerID int64
}
