package postgres

import (
	"time"

	"github.com/lib/pq"
)

type historicalMatchTableModel struct {
	ExternalID string        `db:"external_id"`
	TeamIDs    pq.Int64Array `db:"team_ids"`
	WinnerID   int64         `db:"winner_external_id"`
	PlayedAt   time.Time     `db:"played_at"`
	Tournament string        `db:"tournament"`
	SyncedAt   time.Time     `db:"synced_at"`
}
