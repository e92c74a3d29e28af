package postgres

import (
	"database/sql"
	"time"
)

type teamTableModel struct {
	ExternalID int64     `db:"external_id"`
	Name       string    `db:"name"`
	Slug       string    `db:"slug"`
	ImageURL   string    `db:"image_url"`
	SyncedAt   time.Time `db:"synced_at"`
}

type teamAnalysisTableModel struct {
	TeamExternalID int64           `db:"team_external_id"`
	LastTenWinRate sql.NullFloat64 `db:"last_ten_win_rate"`
	H2HAdvantage   []byte          `db:"h2h_advantage"`
	LastMatchAt    *time.Time      `db:"last_match_at"`
	ComputedAt     *time.Time      `db:"computed_at"`
}
