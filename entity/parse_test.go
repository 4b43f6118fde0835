package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseView(t *testing.T) {
	v, err := ParseView(`CREATE OR REPLACE VIEW public.scoreboard AS
		select name, points from players;`)
	require.NoError(t, err)
	assert.Equal(t, "public", v.Schema())
	assert.Equal(t, "scoreboard", v.Signature())
	assert.Equal(t, "select name, points from players", v.Definition())
}

func TestParseViewWithColumnList(t *testing.T) {
	v, err := ParseView(`create view public.scoreboard (name, points) as select name, points from players`)
	require.NoError(t, err)
	assert.Equal(t, "scoreboard", v.Signature())
}

func TestParseViewRejectsUnqualified(t *testing.T) {
	_, err := ParseView(`create table public.players (id int)`)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, KindView, parseErr.Kind)
}

func TestParseMaterializedView(t *testing.T) {
	cases := []struct {
		sql      string
		withData bool
	}{
		{`create materialized view public.totals as select sum(points) from players`, true},
		{`create materialized view public.totals as select sum(points) from players with data`, true},
		{`create materialized view public.totals as select sum(points) from players with no data`, false},
	}
	for _, c := range cases {
		m, err := ParseMaterializedView(c.sql)
		require.NoError(t, err, c.sql)
		assert.Equal(t, "totals", m.Signature())
		assert.Equal(t, c.withData, m.WithData(), c.sql)
		assert.Equal(t, "select sum(points) from players", m.Definition(), c.sql)
	}
}

func TestParseTrigger(t *testing.T) {
	tr, err := ParseTrigger(`CREATE TRIGGER audit_rows
		AFTER INSERT OR UPDATE ON public.orders
		FOR EACH ROW EXECUTE PROCEDURE audit();`)
	require.NoError(t, err)
	assert.Equal(t, "audit_rows", tr.Signature())
	assert.Equal(t, "public.orders", tr.OnEntity())
	assert.Equal(t, "public", tr.Schema())
	assert.False(t, tr.IsConstraint())
}

func TestParseTriggerQualifiesBareTable(t *testing.T) {
	tr, err := ParseTrigger(`create trigger t before delete on orders for each row execute procedure guard()`)
	require.NoError(t, err)
	assert.Equal(t, "public.orders", tr.OnEntity())
	assert.Equal(t, "public", tr.Schema())
}

func TestParseConstraintTrigger(t *testing.T) {
	tr, err := ParseTrigger(`create constraint trigger check_totals
		after insert on public.orders
		deferrable initially deferred
		for each row execute procedure check_totals()`)
	require.NoError(t, err)
	assert.True(t, tr.IsConstraint())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(`CREATE POLICY tenant_rows ON public.accounts
		AS PERMISSIVE FOR SELECT TO app USING (tenant_id = current_tenant())`)
	require.NoError(t, err)
	assert.Equal(t, "tenant_rows.accounts", p.Signature())
	assert.Equal(t, "public", p.Schema())
}

func TestParseCompositeType(t *testing.T) {
	ct, err := ParseCompositeType(`create type public.money_amount as (currency char(3), amount numeric(10,2));`)
	require.NoError(t, err)
	assert.Equal(t, "money_amount", ct.Signature())
	assert.Contains(t, ct.Definition(), "currency char(3)")
}

func TestParseFunction(t *testing.T) {
	f, err := ParseFunction(`CREATE OR REPLACE FUNCTION public.to_upper(s text)
		RETURNS text AS $$ SELECT upper(s) $$ LANGUAGE sql;`)
	require.NoError(t, err)
	assert.Equal(t, KindFunction, f.Kind())
	assert.Equal(t, "public", f.Schema())
	assert.Equal(t, "to_upper(s text)", f.Signature())
	assert.Contains(t, f.Definition(), "RETURNS text")
}

func TestParseFunctionDefaultsSchema(t *testing.T) {
	f, err := ParseFunction(`create function to_upper(s text) returns text as $$ select upper(s) $$ language sql`)
	require.NoError(t, err)
	assert.Equal(t, "public", f.Schema())
}

func TestParseProcedure(t *testing.T) {
	p, err := ParseFunction(`CREATE PROCEDURE public.refresh_totals()
		LANGUAGE SQL AS $$ refresh materialized view public.totals $$;`)
	require.NoError(t, err)
	assert.Equal(t, KindProcedure, p.Kind())
	assert.Equal(t, "refresh_totals()", p.Signature())
}

func TestParseFunctionRejectsInvalidSQL(t *testing.T) {
	_, err := ParseFunction(`create function public.broken( returns text`)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestParseMSSQLView(t *testing.T) {
	v, err := ParseMSSQLView(`CREATE VIEW [dbo].[scoreboard] AS select name, points from players`)
	require.NoError(t, err)
	assert.Equal(t, "dbo", v.Schema())
	assert.Equal(t, "scoreboard", v.Signature())
}

func TestFromSQLDispatch(t *testing.T) {
	e, err := FromSQL(KindView, `create view public.v as select 1`)
	require.NoError(t, err)
	assert.Equal(t, KindView, e.Kind())

	_, err = FromSQL(KindExtension, `anything`)
	assert.Error(t, err)
}
