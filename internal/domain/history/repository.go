package history

import "context"

// Repository exposes historical-match persistence. Matches are immutable
// after creation.
type Repository interface {
	Exists(ctx context.Context, externalID string) (bool, error)
	Create(ctx context.Context, item Match) error
	// ListRecentByTeam returns up to limit matches for the team, newest first.
	ListRecentByTeam(ctx context.Context, teamExternalID int64, limit int) ([]Match, error)
	ListByTeam(ctx context.Context, teamExternalID int64) ([]Match, error)
}
