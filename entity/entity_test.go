package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityStability(t *testing.T) {
	a := NewPGView("public", "scoreboard", "select 1")
	b := NewPGView(`"public"`, "  scoreboard ", "select      2")
	assert.Equal(t, a.Identity(), b.Identity())
	assert.Equal(t, "view: public.scoreboard", a.Identity())
}

func TestIdentitySeparatesKinds(t *testing.T) {
	v := NewPGView("public", "thing", "select 1")
	m := NewPGMaterializedView("public", "thing", "select 1", true)
	assert.NotEqual(t, v.Identity(), m.Identity())
}

func TestTriggerIdentityIncludesTarget(t *testing.T) {
	a := NewPGTrigger("public", "audit", "AFTER INSERT ON public.orders FOR EACH ROW EXECUTE PROCEDURE audit()", "public.orders")
	b := NewPGTrigger("public", "audit", "AFTER INSERT ON public.refunds FOR EACH ROW EXECUTE PROCEDURE audit()", "public.refunds")
	assert.NotEqual(t, a.Identity(), b.Identity())
}

func TestExtensionIdentityExcludesSchema(t *testing.T) {
	a := NewPGExtension("public", "citext")
	b := NewPGExtension("extensions", "citext")
	assert.Equal(t, a.Identity(), b.Identity())
	assert.NotEqual(t, a.Definition(), b.Definition())
}

func TestCanonicalName(t *testing.T) {
	v := NewPGView("Public", "My-View", "select 1")
	assert.Equal(t, "public_my_view", v.CanonicalName())
}

func TestCanonicalNameDisambiguatesOverloads(t *testing.T) {
	a := NewPGFunction("public", "to_upper(s text)", "returns text as $$ select upper(s) $$ language sql")
	b := NewPGFunction("public", "to_upper(n integer)", "returns text as $$ select n::text $$ language sql")
	assert.NotEqual(t, a.CanonicalName(), b.CanonicalName())

	// Parameter spelling does not change the handle.
	c := NewPGFunction("public", "to_upper( S  TEXT )", "returns text as $$ select upper(s) $$ language sql")
	assert.Equal(t, a.CanonicalName(), c.CanonicalName())
}

func TestViewStatements(t *testing.T) {
	v := NewPGView("public", "scoreboard", "select name, points from players;")
	assert.Equal(t, `CREATE VIEW "public"."scoreboard" AS select name, points from players;`, v.CreateStatement())
	assert.Equal(t, `DROP VIEW "public"."scoreboard"`, v.DropStatement(false))
	assert.Equal(t, `DROP VIEW "public"."scoreboard" CASCADE`, v.DropStatement(true))

	stmts := v.ReplaceStatements()
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE OR REPLACE VIEW")
	assert.Contains(t, stmts[0], "DROP VIEW IF EXISTS")
}

func TestMaterializedViewWithoutData(t *testing.T) {
	m := NewPGMaterializedView("public", "totals", "select sum(points) from players", true)
	assert.Contains(t, m.CreateStatement(), "WITH DATA")

	sim := m.WithoutData()
	assert.Contains(t, sim.CreateStatement(), "WITH NO DATA")
	assert.Equal(t, m.Identity(), sim.Identity())
	// The original is untouched.
	assert.True(t, m.WithData())
}

func TestTriggerCreateRequalifiesTarget(t *testing.T) {
	tr := NewPGTrigger("accounting", "on_change", "AFTER UPDATE ON ledger FOR EACH ROW EXECUTE PROCEDURE on_change()", "accounting.ledger")
	assert.Contains(t, tr.CreateStatement(), "ON accounting.ledger")
}

func TestConstraintTriggerCreate(t *testing.T) {
	tr := NewPGConstraintTrigger("public", "check_totals", "AFTER INSERT ON public.orders FOR EACH ROW EXECUTE PROCEDURE check_totals()", "public.orders", true)
	assert.Contains(t, tr.CreateStatement(), "CREATE CONSTRAINT TRIGGER")
}

func TestFunctionDropStripsDefaults(t *testing.T) {
	f := NewPGFunction("public", "pad(s text, width integer default 10)",
		"returns text as $$ select rpad(s, width) $$ language sql")
	drop := f.DropStatement(false)
	assert.Contains(t, drop, "s text")
	assert.Contains(t, drop, "width integer")
	assert.NotContains(t, drop, "default")
}

func TestProcedureKeyword(t *testing.T) {
	p := NewPGProcedure("public", "refresh_totals()", "language sql as $$ refresh materialized view totals $$")
	assert.Equal(t, KindProcedure, p.Kind())
	assert.Contains(t, p.CreateStatement(), "CREATE PROCEDURE")
}

func TestGrantTableColumnRules(t *testing.T) {
	_, err := NewPGGrantTable("public", "accounts", "app", GrantSelect, nil, false)
	assert.Error(t, err)

	_, err = NewPGGrantTable("public", "accounts", "app", GrantDelete, []string{"id"}, false)
	assert.Error(t, err)

	g, err := NewPGGrantTable("public", "accounts", "app", GrantSelect, []string{"id", "name"}, false)
	require.NoError(t, err)
	assert.Equal(t, "grant_table: public.accounts.app.SELECT", g.Identity())

	d, err := NewPGGrantTable("public", "accounts", "app", GrantDelete, nil, true)
	require.NoError(t, err)
	assert.Contains(t, d.CreateStatement(), "WITH GRANT OPTION")
}

func TestMSSQLViewStatements(t *testing.T) {
	v := NewMSSQLView("dbo", "scoreboard", "select name, points from players")
	assert.Contains(t, v.CreateStatement(), "[dbo].[scoreboard]")
	assert.Contains(t, v.ReplaceStatements()[0], "CREATE OR ALTER VIEW")
}
