package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entdef/entdef/entity"
)

func TestCreateOpReversesToDropOp(t *testing.T) {
	v := entity.NewPGView("public", "v", "select 1")
	op := NewCreateOp(v)

	assert.Equal(t, []string{v.CreateStatement()}, op.Statements())

	rev := op.Reverse()
	drop, ok := rev.(*DropOp)
	require.True(t, ok)
	assert.Equal(t, v.Identity(), drop.Target().Identity())
	assert.False(t, drop.Cascade)
}

func TestDropOpReversesToCreateOp(t *testing.T) {
	v := entity.NewPGView("public", "v", "select 1")
	op := NewDropOp(v, true)

	assert.Equal(t, []string{v.DropStatement(true)}, op.Statements())

	rev := op.Reverse()
	create, ok := rev.(*CreateOp)
	require.True(t, ok)
	assert.Equal(t, v.Identity(), create.Target().Identity())
}

func TestReplaceOpReversesToPriorDefinition(t *testing.T) {
	declared := entity.NewPGView("public", "v", "select 2")
	prior := entity.NewPGView("public", "v", "select 1")
	op := NewReplaceOp(declared, prior)

	assert.Equal(t, declared.ReplaceStatements(), op.Statements())

	rev := op.Reverse()
	revert, ok := rev.(*RevertOp)
	require.True(t, ok)
	assert.Equal(t, prior.ReplaceStatements(), revert.Statements())

	// The captured definition only goes one level deep.
	assert.Nil(t, revert.Reverse())
}

func TestOpStrings(t *testing.T) {
	v := entity.NewPGView("public", "v", "select 1")
	assert.Equal(t, "create view: public.v", NewCreateOp(v).String())
	assert.Equal(t, "drop view: public.v", NewDropOp(v, false).String())
	assert.Equal(t, "replace view: public.v", NewReplaceOp(v, v).String())
}
