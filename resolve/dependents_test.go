package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entdef/entdef/entity"
)

func TestParseDependentDetail(t *testing.T) {
	detail := `view dependent_view depends on function public.to_upper(s text)
materialized view public.totals depends on view dependent_view`

	stubs := parseDependentDetail(detail)
	require.Len(t, stubs, 2)

	// Postgres lists outermost-last; the result is drop-safe, outermost first.
	assert.Equal(t, entity.KindMaterializedView, stubs[0].kind)
	assert.Equal(t, "public.totals", stubs[0].signature)
	assert.Equal(t, entity.KindView, stubs[1].kind)
	assert.Equal(t, "public.dependent_view", stubs[1].signature)
}

func TestParseDependentDetailTrigger(t *testing.T) {
	detail := `trigger audit_rows on table public.orders depends on function public.audit()`

	stubs := parseDependentDetail(detail)
	require.Len(t, stubs, 1)
	assert.Equal(t, entity.KindTrigger, stubs[0].kind)
	assert.Equal(t, "audit_rows", stubs[0].signature)
	assert.Equal(t, "public.orders", stubs[0].onEntity)
}

func TestParseDependentDetailDeduplicates(t *testing.T) {
	detail := `view a depends on function public.f()
view b depends on function public.f()
view a depends on type public.money_amount`

	stubs := parseDependentDetail(detail)
	require.Len(t, stubs, 2)
	// a is kept once, at its outermost position.
	assert.Equal(t, "public.a", stubs[0].signature)
	assert.Equal(t, "public.b", stubs[1].signature)
}

func TestParseDependentDetailIgnoresUnknownLines(t *testing.T) {
	detail := `constraint orders_fk on table public.orders depends on table public.accounts`
	assert.Empty(t, parseDependentDetail(detail))
}

func TestQualifySignature(t *testing.T) {
	assert.Equal(t, "public.v", qualifySignature("v"))
	assert.Equal(t, "reporting.v", qualifySignature("reporting.v"))
}
