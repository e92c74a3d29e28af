package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ExternalID int64         `db:"external_id"`
	Name       string        `db:"name"`
	Team1ID    sql.NullInt64 `db:"team1_external_id"`
	Team2ID    sql.NullInt64 `db:"team2_external_id"`
	StartTime  time.Time     `db:"start_time"`
	Tournament string        `db:"tournament"`
	Status     string        `db:"status"`
	Game       string        `db:"game"`
	NextMap    string        `db:"next_map"`
	SyncedAt   time.Time     `db:"synced_at"`
}
