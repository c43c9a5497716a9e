package querybuilder

import (
	"reflect"
	"testing"
)

func assertSQL(t *testing.T, gotSQL string, gotArgs []any, err error, wantSQL string, wantArgs ...any) {
	t.Helper()
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if gotSQL != wantSQL {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantSQL, gotSQL)
	}
	if len(wantArgs) == 0 && len(gotArgs) == 0 {
		return
	}
	if !reflect.DeepEqual(gotArgs, wantArgs) {
		t.Fatalf("unexpected args: want %+v got %+v", wantArgs, gotArgs)
	}
}

func TestSelectBuilder_ForUpdate(t *testing.T) {
	query, args, err := Select("public_id", "capacity").
		From("heats").
		Where(Eq("public_id", "h1")).
		ForUpdate().
		ToSQL()
	assertSQL(t, query, args, err, "SELECT public_id, capacity FROM heats WHERE public_id = $1 FOR UPDATE", "h1")
}

func TestSelectBuilder_ConditionsShareNumbering(t *testing.T) {
	query, args, err := Select("COUNT(*)").
		From("registrations").
		Where(
			Eq("tournament_public_id", "t1"),
			In("status", []any{"pending", "approved"}),
			NotNull("points"),
			Expr("registered_at >= ? AND registered_at < ?", "a", "b"),
		).
		OrderBy("registered_at ASC").
		Limit(5).
		ToSQL()
	assertSQL(t, query, args, err,
		"SELECT COUNT(*) FROM registrations WHERE tournament_public_id = $1 AND status IN ($2, $3) AND points IS NOT NULL AND registered_at >= $4 AND registered_at < $5 ORDER BY registered_at ASC LIMIT 5",
		"t1", "pending", "approved", "a", "b",
	)
}

func TestSelectBuilder_EmptyInMatchesNothing(t *testing.T) {
	query, _, err := Select("*").From("heats").Where(In("public_id", nil)).ToSQL()
	assertSQL(t, query, nil, err, "SELECT * FROM heats WHERE 1=0")
}

func TestInsertBuilder_MultiRow(t *testing.T) {
	query, args, err := InsertInto("scoring_rules").
		Columns("tournament_public_id", "position", "points").
		Values("t1", 1, 100).
		Values("t1", 2, 80).
		ToSQL()
	assertSQL(t, query, args, err,
		"INSERT INTO scoring_rules (tournament_public_id, position, points) VALUES ($1, $2, $3), ($4, $5, $6)",
		"t1", 1, 100, "t1", 2, 80,
	)
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	if _, _, err := InsertInto("t").Columns("a", "b").Values(1).ToSQL(); err == nil {
		t.Fatalf("expected row width error")
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("heats").
		Set("capacity", 12).
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "h1")).
		ToSQL()
	assertSQL(t, query, args, err, "UPDATE heats SET capacity = $1, updated_at = NOW() WHERE public_id = $2", 12, "h1")
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("heat_allocations").
		Where(Eq("heat_public_id", "h1"), Eq("registration_public_id", "r1")).
		ToSQL()
	assertSQL(t, query, args, err, "DELETE FROM heat_allocations WHERE heat_public_id = $1 AND registration_public_id = $2", "h1", "r1")

	if _, _, err := DeleteFrom("heat_allocations").ToSQL(); err == nil {
		t.Fatalf("expected unbounded delete to be rejected")
	}
}

func TestInsertModels(t *testing.T) {
	type row struct {
		Position int    `db:"position"`
		Points   int    `db:"points"`
		Ignored  string `db:"-"`
	}
	query, args, err := InsertModels("scoring_rules", []row{{Position: 1, Points: 10}, {Position: 2, Points: 5}}, "")
	assertSQL(t, query, args, err, "INSERT INTO scoring_rules (position, points) VALUES ($1, $2), ($3, $4)", 1, 10, 2, 5)
}
