package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entdef/entdef/entity"
)

func TestCacheMissThenHit(t *testing.T) {
	c := NewCache()
	v := entity.NewPGView("public", "v", "select 1")

	_, _, ok := c.Get(v)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Misses())

	c.Put(v, NewCreateOp(v), v.Identity())
	op, renderedID, ok := c.Get(v)
	require.True(t, ok)
	assert.Equal(t, 1, c.Hits())
	assert.IsType(t, &CreateOp{}, op)
	assert.Equal(t, v.Identity(), renderedID)
}

func TestCacheStoresUnchangedResult(t *testing.T) {
	c := NewCache()
	v := entity.NewPGView("public", "v", "select 1")

	c.Put(v, nil, v.Identity())
	op, renderedID, ok := c.Get(v)
	require.True(t, ok)
	assert.Nil(t, op)
	assert.Equal(t, v.Identity(), renderedID)
}

func TestCacheKeyTracksDefinition(t *testing.T) {
	c := NewCache()
	v := entity.NewPGView("public", "v", "select 1")
	c.Put(v, nil, v.Identity())

	// Same identity, different definition: the stale result must not serve.
	_, _, ok := c.Get(entity.NewPGView("public", "v", "select 2"))
	assert.False(t, ok)
}

func TestCacheKeyIgnoresWhitespace(t *testing.T) {
	c := NewCache()
	v := entity.NewPGView("public", "v", "select a, b from t")
	c.Put(v, nil, v.Identity())

	_, _, ok := c.Get(entity.NewPGView("public", "v", "select a,\n\tb  from t"))
	assert.True(t, ok)
}
