package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entdef/entdef/entity"
)

func TestCheckDuplicatesRejectsSharedIdentity(t *testing.T) {
	a := entity.NewPGView("public", "v", "select 1")
	b := entity.NewPGView("public", "v", "select 2")

	err := checkDuplicates([]entity.Entity{a, b})
	var dupErr *DuplicateRegistrationError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, a.Identity(), dupErr.Identity)
}

func TestCheckDuplicatesAllowsSameNameAcrossKinds(t *testing.T) {
	v := entity.NewPGView("public", "thing", "select 1")
	m := entity.NewPGMaterializedView("public", "thing", "select 1", true)
	assert.NoError(t, checkDuplicates([]entity.Entity{v, m}))
}

func TestRequiredOpMatchesOnRenderedIdentity(t *testing.T) {
	// The server reflects "int" back as "integer": the declared identity
	// never appears in a reflection, only the rendered one does.
	declared := entity.NewPGFunction("public", "add_one(n int)",
		"returns int as $$ select n + 1 $$ language sql")
	rendered := entity.NewPGFunction("public", "add_one(n integer)",
		"RETURNS integer LANGUAGE sql AS $function$ select n + 1 $function$")
	liveMatch := entity.NewPGFunction("public", "add_one(n integer)",
		"RETURNS integer LANGUAGE sql AS $function$ select n + 1 $function$")

	op := requiredOp(declared, rendered, []entity.Entity{liveMatch})
	assert.Nil(t, op)
}

func TestRequiredOpCreatesWhenAbsent(t *testing.T) {
	declared := entity.NewPGView("public", "v", "select 1")
	rendered := entity.NewPGView("public", "v", "SELECT 1;")

	op := requiredOp(declared, rendered, nil)
	create, ok := op.(*CreateOp)
	require.True(t, ok)
	assert.Equal(t, declared.Identity(), create.Target().Identity())
}

func TestRequiredOpComparesNormalizedDefinitions(t *testing.T) {
	declared := entity.NewPGView("public", "v", "select a, b from t")
	rendered := entity.NewPGView("public", "v", "SELECT a,\n    b\n   FROM t")
	liveSame := entity.NewPGView("public", "v", "SELECT a, b\n FROM t")

	assert.Nil(t, requiredOp(declared, rendered, []entity.Entity{liveSame}))

	liveStale := entity.NewPGView("public", "v", "SELECT a FROM t")
	op := requiredOp(declared, rendered, []entity.Entity{liveStale})
	replace, ok := op.(*ReplaceOp)
	require.True(t, ok)
	assert.Equal(t, declared.Identity(), replace.Target().Identity())
	assert.Equal(t, liveStale.Definition(), replace.Prior().Definition())
}

func TestConfigIncludeAppliesToBothSides(t *testing.T) {
	grantsOnly := Config{Filter: func(e entity.Entity, reflected bool) bool {
		if reflected {
			return false
		}
		return e.Kind() == entity.KindGrantTable
	}}

	view := entity.NewPGView("public", "v", "select 1")
	assert.False(t, grantsOnly.include(view, false))
	assert.False(t, grantsOnly.include(view, true))

	grant, err := entity.NewPGGrantTable("public", "accounts", "app", entity.GrantDelete, nil, false)
	require.NoError(t, err)
	assert.True(t, grantsOnly.include(grant, false))
	assert.False(t, grantsOnly.include(grant, true))

	assert.True(t, Config{}.include(view, true))
}

func TestSchemaPattern(t *testing.T) {
	assert.Equal(t, "reporting", schemaPattern(entity.NewPGView("reporting", "v", "select 1")))
	// Extensions are scanned globally since their identity has no schema.
	assert.Equal(t, "%", schemaPattern(entity.NewPGExtension("public", "citext")))
}
