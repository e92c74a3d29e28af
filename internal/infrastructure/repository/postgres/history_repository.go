package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/LZ26/esports-analytics/internal/domain/history"
	qb "github.com/LZ26/esports-analytics/internal/platform/querybuilder"
)

type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Exists(ctx context.Context, externalID string) (bool, error) {
	query, args, err := qb.Select("1").From("historical_matches").
		Where(qb.Eq("external_id", externalID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build select historical match query: %w", err)
	}

	var one int
	if err := r.db.GetContext(ctx, &one, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("select historical match: %w", err)
	}
	return true, nil
}

func (r *HistoryRepository) Create(ctx context.Context, item history.Match) error {
	query, args, err := qb.InsertInto("historical_matches").
		Columns("external_id", "team_ids", "winner_external_id", "played_at", "tournament", "synced_at").
		Values(item.ExternalID, pq.Int64Array(item.TeamIDs), item.WinnerID, item.PlayedAt, item.Tournament, item.SyncedAt).
		Suffix("ON CONFLICT (external_id) DO NOTHING").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert historical match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert historical match: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListRecentByTeam(ctx context.Context, teamExternalID int64, limit int) ([]history.Match, error) {
	builder := qb.Select("*").From("historical_matches").
		Where(qb.Expr("team_ids @> ARRAY[?]::bigint[]", teamExternalID)).
		OrderBy("played_at DESC", "external_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select recent matches query: %w", err)
	}

	var rows []historicalMatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select recent matches for team %d: %w", teamExternalID, err)
	}

	return mapHistoricalRows(rows), nil
}

func (r *HistoryRepository) ListByTeam(ctx context.Context, teamExternalID int64) ([]history.Match, error) {
	return r.ListRecentByTeam(ctx, teamExternalID, 0)
}

func mapHistoricalRows(rows []historicalMatchTableModel) []history.Match {
	out := make([]history.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, history.Match{
			ExternalID: row.ExternalID,
			TeamIDs:    []int64(row.TeamIDs),
			WinnerID:   row.WinnerID,
			PlayedAt:   row.PlayedAt,
			Tournament: row.Tournament,
			SyncedAt:   row.SyncedAt,
		})
	}
	return out
}
