package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LZ26/esports-analytics/internal/domain/match"
	qb "github.com/LZ26/esports-analytics/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) error {
	query, args, err := qb.InsertInto("matches").
		Columns("external_id", "name", "team1_external_id", "team2_external_id", "start_time", "tournament", "status", "game", "next_map", "synced_at").
		Values(item.ExternalID, item.Name, nullableID(item.Team1ID), nullableID(item.Team2ID), item.StartTime, item.Tournament, item.Status, item.Game, item.NextMap, item.SyncedAt).
		Suffix(`ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			team1_external_id = EXCLUDED.team1_external_id,
			team2_external_id = EXCLUDED.team2_external_id,
			start_time = EXCLUDED.start_time,
			tournament = EXCLUDED.tournament,
			status = EXCLUDED.status,
			game = EXCLUDED.game,
			next_map = EXCLUDED.next_map,
			synced_at = EXCLUDED.synced_at`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	return nil
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID int64) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("external_id", externalID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match: %w", err)
	}

	return mapMatchRow(row), true, nil
}

func (r *MatchRepository) ListUpcoming(ctx context.Context, game string) ([]match.Match, error) {
	conditions := []qb.Condition{
		qb.In("status", []any{match.StatusScheduled, match.StatusRunning}),
	}
	if game != "" {
		conditions = append(conditions, qb.Eq("game", game))
	}

	query, args, err := qb.Select("*").From("matches").
		Where(conditions...).
		OrderBy("start_time", "external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select upcoming matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select upcoming matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapMatchRow(row))
	}
	return out, nil
}

func mapMatchRow(row matchTableModel) match.Match {
	out := match.Match{
		ExternalID: row.ExternalID,
		Name:       row.Name,
		StartTime:  row.StartTime,
		Tournament: row.Tournament,
		Status:     row.Status,
		Game:       row.Game,
		NextMap:    row.NextMap,
		SyncedAt:   row.SyncedAt,
	}
	if row.Team1ID.Valid {
		id := row.Team1ID.Int64
		out.Team1ID = &id
	}
	if row.Team2ID.Valid {
		id := row.Team2ID.Int64
		out.Team2ID = &id
	}
	return out
}

func nullableID(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}
