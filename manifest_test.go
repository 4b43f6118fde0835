package entdef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entdef/entdef/entity"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entities.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
entities:
  - name: to_upper
    kind: function
    sql: |
      create function public.to_upper(s text) returns text as $$ select upper(s) $$ language sql
  - kind: view
    sql: create view public.upper_names as select public.to_upper(name) from players
    depends_on: [to_upper]
  - kind: extension
    signature: citext
  - kind: grant_table
    schema: public
    table: accounts
    role: app
    grant: select
    columns: [id, name]
`)

	entities, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, entities, 4)

	assert.Equal(t, entity.KindFunction, entities[0].Kind())
	assert.Equal(t, entity.KindView, entities[1].Kind())
	require.Len(t, entities[1].DependsOn(), 1)
	assert.Equal(t, entities[0].Identity(), entities[1].DependsOn()[0].Identity())

	assert.Equal(t, entity.KindExtension, entities[2].Kind())
	assert.Equal(t, "public", entities[2].Schema())
	assert.Equal(t, entity.KindGrantTable, entities[3].Kind())
}

func TestLoadManifestRejectsUnknownDependency(t *testing.T) {
	path := writeManifest(t, `
entities:
  - kind: view
    sql: create view public.v as select 1
    depends_on: [nowhere]
`)
	_, err := LoadManifest(path)
	assert.ErrorContains(t, err, "nowhere")
}

func TestLoadManifestRejectsDuplicateNames(t *testing.T) {
	path := writeManifest(t, `
entities:
  - name: same
    kind: view
    sql: create view public.a as select 1
  - name: same
    kind: view
    sql: create view public.b as select 1
`)
	_, err := LoadManifest(path)
	assert.ErrorContains(t, err, "duplicate name")
}

func TestLoadManifestValidatesGrantFields(t *testing.T) {
	path := writeManifest(t, `
entities:
  - kind: grant_table
    schema: public
    table: accounts
    role: app
    grant: select
`)
	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestLoadManifestRejectsUnknownKeys(t *testing.T) {
	path := writeManifest(t, `
entities:
  - kind: view
    sql: create view public.v as select 1
    casacde: true
`)
	_, err := LoadManifest(path)
	assert.Error(t, err)
}
