package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/LZ26/esports-analytics/internal/domain/team"
	qb "github.com/LZ26/esports-analytics/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		OrderBy("external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	return mapTeamRows(rows), nil
}

func (r *TeamRepository) ListDueForUpdate(ctx context.Context, olderThan time.Time) ([]team.Team, error) {
	query, args, err := qb.Select("t.*").
		From("teams t LEFT JOIN team_analyses a ON a.team_external_id = t.external_id").
		Where(qb.Expr("(a.computed_at IS NULL OR a.computed_at < ?)", olderThan)).
		OrderBy("t.external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select due teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams due for update: %w", err)
	}

	return mapTeamRows(rows), nil
}

func (r *TeamRepository) GetByExternalID(ctx context.Context, externalID int64) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("external_id", externalID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team: %w", err)
	}

	return mapTeamRow(row), true, nil
}

func (r *TeamRepository) Create(ctx context.Context, item team.Team) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create team tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := qb.InsertInto("teams").
		Columns("external_id", "name", "slug", "image_url", "synced_at").
		Values(item.ExternalID, item.Name, item.Slug, item.ImageURL, item.LastSyncedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert team query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}

	query, args, err = qb.InsertInto("team_analyses").
		Columns("team_external_id", "h2h_advantage").
		Values(item.ExternalID, []byte("{}")).
		Suffix("ON CONFLICT (team_external_id) DO NOTHING").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert team analysis query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert team analysis: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create team tx: %w", err)
	}
	return nil
}

func (r *TeamRepository) Update(ctx context.Context, item team.Team) error {
	query, args, err := qb.Update("teams").
		Set("name", item.Name).
		Set("slug", item.Slug).
		Set("image_url", item.ImageURL).
		Set("synced_at", item.LastSyncedAt).
		Where(qb.Eq("external_id", item.ExternalID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update team query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	return nil
}

func (r *TeamRepository) GetAnalysis(ctx context.Context, teamExternalID int64) (team.Analysis, bool, error) {
	query, args, err := qb.Select("*").From("team_analyses").
		Where(qb.Eq("team_external_id", teamExternalID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Analysis{}, false, fmt.Errorf("build select team analysis query: %w", err)
	}

	var row teamAnalysisTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Analysis{}, false, nil
		}
		return team.Analysis{}, false, fmt.Errorf("select team analysis: %w", err)
	}

	out := team.Analysis{
		TeamExternalID: row.TeamExternalID,
		LastMatchAt:    row.LastMatchAt,
	}
	if row.LastTenWinRate.Valid {
		rate := row.LastTenWinRate.Float64
		out.LastTenWinRate = &rate
	}
	if row.ComputedAt != nil {
		out.ComputedAt = *row.ComputedAt
	}
	if len(row.H2HAdvantage) > 0 {
		if err := sonic.Unmarshal(row.H2HAdvantage, &out.H2HAdvantage); err != nil {
			return team.Analysis{}, false, fmt.Errorf("decode h2h advantage team_id=%d: %w", teamExternalID, err)
		}
	}

	return out, true, nil
}

// SaveAnalysis writes every derived field in one upsert so concurrent
// readers see either the previous analysis or the new one, never a mix.
func (r *TeamRepository) SaveAnalysis(ctx context.Context, item team.Analysis) error {
	h2h := item.H2HAdvantage
	if h2h == nil {
		h2h = map[int64]float64{}
	}
	encoded, err := sonic.Marshal(h2h)
	if err != nil {
		return fmt.Errorf("encode h2h advantage team_id=%d: %w", item.TeamExternalID, err)
	}

	var winRate sql.NullFloat64
	if item.LastTenWinRate != nil {
		winRate = sql.NullFloat64{Float64: *item.LastTenWinRate, Valid: true}
	}
	var computedAt *time.Time
	if !item.ComputedAt.IsZero() {
		computedAt = &item.ComputedAt
	}

	query, args, err := qb.InsertInto("team_analyses").
		Columns("team_external_id", "last_ten_win_rate", "h2h_advantage", "last_match_at", "computed_at").
		Values(item.TeamExternalID, winRate, encoded, item.LastMatchAt, computedAt).
		Suffix(`ON CONFLICT (team_external_id) DO UPDATE SET
			last_ten_win_rate = EXCLUDED.last_ten_win_rate,
			h2h_advantage = EXCLUDED.h2h_advantage,
			last_match_at = EXCLUDED.last_match_at,
			computed_at = EXCLUDED.computed_at`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert team analysis query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team analysis: %w", err)
	}
	return nil
}

func mapTeamRows(rows []teamTableModel) []team.Team {
	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapTeamRow(row))
	}
	return out
}

func mapTeamRow(row teamTableModel) team.Team {
	return team.Team{
		ExternalID:   row.ExternalID,
		Name:         row.Name,
		Slug:         row.Slug,
		ImageURL:     row.ImageURL,
		LastSyncedAt: row.SyncedAt,
	}
}
