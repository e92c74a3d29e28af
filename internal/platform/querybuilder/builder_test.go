package querybuilder

import (
	"reflect"
	"testing"
	"time"
)

func TestSelect_ToSQL(t *testing.T) {
	t.Parallel()

	olderThan := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sql, args, err := Select("external_id", "name").
		From("teams").
		Where(Eq("slug", "navi"), Lt("synced_at", olderThan)).
		OrderBy("synced_at DESC", "external_id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "SELECT external_id, name FROM teams WHERE slug = $1 AND synced_at < $2 ORDER BY synced_at DESC, external_id LIMIT 10"
	if sql != want {
		t.Fatalf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"navi", olderThan}) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestSelect_ToSQL_RequiresColumnsAndTable(t *testing.T) {
	t.Parallel()

	if _, _, err := Select().From("teams").ToSQL(); err == nil {
		t.Fatalf("expected error for missing columns")
	}
	if _, _, err := Select("1").ToSQL(); err == nil {
		t.Fatalf("expected error for missing table")
	}
}

func TestSelect_ExprRewritesPlaceholders(t *testing.T) {
	t.Parallel()

	sql, args, err := Select("external_id").
		From("historical_matches").
		Where(
			Eq("tournament", "IEM"),
			Expr("team_ids @> ARRAY[?]::bigint[]", int64(10)),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "SELECT external_id FROM historical_matches WHERE tournament = $1 AND team_ids @> ARRAY[$2]::bigint[]"
	if sql != want {
		t.Fatalf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"IEM", int64(10)}) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestSelect_InCondition(t *testing.T) {
	t.Parallel()

	sql, args, err := Select("external_id").
		From("matches").
		Where(In("status", []any{"not_started", "running"})).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "SELECT external_id FROM matches WHERE status IN ($1, $2)"
	if sql != want {
		t.Fatalf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"not_started", "running"}) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestSelect_InCondition_EmptyNeverMatches(t *testing.T) {
	t.Parallel()

	sql, args, err := Select("external_id").
		From("matches").
		Where(In("status", nil)).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}
	if sql != "SELECT external_id FROM matches WHERE 1=0" {
		t.Fatalf("unexpected sql: %s", sql)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestSelect_IsNull(t *testing.T) {
	t.Parallel()

	sql, _, err := Select("t.external_id").
		From("teams t LEFT JOIN team_analyses a ON a.team_external_id = t.external_id").
		Where(IsNull("a.computed_at")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}
	want := "SELECT t.external_id FROM teams t LEFT JOIN team_analyses a ON a.team_external_id = t.external_id WHERE a.computed_at IS NULL"
	if sql != want {
		t.Fatalf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
}

func TestInsert_ToSQL(t *testing.T) {
	t.Parallel()

	sql, args, err := InsertInto("teams").
		Columns("external_id", "name").
		Values(int64(10), "NAVI").
		Values(int64(11), "FaZe").
		Suffix("ON CONFLICT (external_id) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "INSERT INTO teams (external_id, name) VALUES ($1, $2), ($3, $4) ON CONFLICT (external_id) DO NOTHING"
	if sql != want {
		t.Fatalf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{int64(10), "NAVI", int64(11), "FaZe"}) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestInsert_ToSQL_RejectsRaggedRows(t *testing.T) {
	t.Parallel()

	if _, _, err := InsertInto("teams").
		Columns("external_id", "name").
		Values(int64(10)).
		ToSQL(); err == nil {
		t.Fatalf("expected error for a row with the wrong arity")
	}
}

func TestUpdate_ToSQL(t *testing.T) {
	t.Parallel()

	syncedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sql, args, err := Update("teams").
		Set("name", "NAVI").
		Set("synced_at", syncedAt).
		Where(Eq("external_id", int64(10))).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "UPDATE teams SET name = $1, synced_at = $2 WHERE external_id = $3"
	if sql != want {
		t.Fatalf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"NAVI", syncedAt, int64(10)}) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestUpdate_ToSQL_RequiresWhere(t *testing.T) {
	t.Parallel()

	if _, _, err := Update("teams").Set("name", "NAVI").ToSQL(); err == nil {
		t.Fatalf("expected error for an unbounded update")
	}
}
