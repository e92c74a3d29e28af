package team

import (
	"context"
	"time"
)

// Repository describes team persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	// ListDueForUpdate returns teams whose analysis has never been computed
	// or was computed before olderThan.
	ListDueForUpdate(ctx context.Context, olderThan time.Time) ([]Team, error)
	GetByExternalID(ctx context.Context, externalID int64) (Team, bool, error)
	// Create inserts the team together with its zero-valued Analysis in one
	// transaction.
	Create(ctx context.Context, item Team) error
	Update(ctx context.Context, item Team) error

	GetAnalysis(ctx context.Context, teamExternalID int64) (Analysis, bool, error)
	// SaveAnalysis writes every analysis field in a single statement so
	// readers never observe a half-updated row.
	SaveAnalysis(ctx context.Context, item Analysis) error
}
