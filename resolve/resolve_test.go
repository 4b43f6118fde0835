package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entdef/entdef/entity"
)

func identities(entities []entity.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Identity()
	}
	return out
}

func TestOrderKeepsUndeclaredInputOrderWithoutSession(t *testing.T) {
	a := entity.NewPGView("public", "a", "select 1")
	b := entity.NewPGView("public", "b", "select 2")
	c := entity.NewPGView("public", "c", "select 3")

	ordered, err := Order(nil, []entity.Entity{c, a, b})
	require.NoError(t, err)
	assert.Equal(t, identities([]entity.Entity{c, a, b}), identities(ordered))
}

func TestOrderSortsDeclaredDependenciesAfterUndeclared(t *testing.T) {
	fn := entity.NewPGFunction("public", "f()", "returns int as $$ select 1 $$ language sql")
	inner := entity.NewPGView("public", "inner_v", "select public.f()")
	outer := entity.NewPGView("public", "outer_v", "select * from public.inner_v")
	inner.SetDependsOn(fn)
	outer.SetDependsOn(inner)
	loose := entity.NewPGView("public", "loose", "select 1")

	ordered, err := Order(nil, []entity.Entity{outer, loose, inner, fn})
	require.NoError(t, err)

	ids := identities(ordered)
	require.Len(t, ids, 4)
	// The undeclared entity leads, declared ones follow in dependency order.
	assert.Equal(t, loose.Identity(), ids[0])
	assert.Less(t, indexOf(ids, fn.Identity()), indexOf(ids, inner.Identity()))
	assert.Less(t, indexOf(ids, inner.Identity()), indexOf(ids, outer.Identity()))
}

func TestOrderRejectsCycleBeforeDatabaseWork(t *testing.T) {
	a := entity.NewPGView("public", "a", "select * from public.b")
	b := entity.NewPGView("public", "b", "select * from public.a")
	a.SetDependsOn(b)
	b.SetDependsOn(a)

	_, err := Order(nil, []entity.Entity{a, b})
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
}
