package match

import "context"

// Repository exposes live-match persistence.
type Repository interface {
	Upsert(ctx context.Context, item Match) error
	GetByExternalID(ctx context.Context, externalID int64) (Match, bool, error)
	ListUpcoming(ctx context.Context, game string) ([]Match, error)
}
