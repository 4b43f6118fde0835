package entdef

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/entdef/entdef/entity"
)

// ManifestEntry declares one entity. Most kinds are declared as the raw
// CREATE statement under sql; grants and extensions have no CREATE grammar of
// their own and use the field form instead.
type ManifestEntry struct {
	Name string `yaml:"name,omitempty"`
	Kind string `yaml:"kind"`
	SQL  string `yaml:"sql,omitempty"`

	// Extension form.
	Schema    string `yaml:"schema,omitempty"`
	Signature string `yaml:"signature,omitempty"`

	// Grant form.
	Table           string   `yaml:"table,omitempty"`
	Role            string   `yaml:"role,omitempty"`
	Grant           string   `yaml:"grant,omitempty"`
	Columns         []string `yaml:"columns,omitempty"`
	WithGrantOption bool     `yaml:"with_grant_option,omitempty"`

	// Names of other entries this entity depends on.
	DependsOn []string `yaml:"depends_on,omitempty"`
}

type Manifest struct {
	Entities []ManifestEntry `yaml:"entities"`
}

type dependsOnSetter interface {
	SetDependsOn(deps ...entity.Entity)
}

// LoadManifest reads a YAML manifest from path ("-" for stdin) and returns
// the declared entities in manifest order, with depends_on references wired.
func LoadManifest(path string) ([]entity.Entity, error) {
	var buf []byte
	var err error
	if path == "-" {
		buf, err = io.ReadAll(os.Stdin)
	} else {
		buf, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := yaml.UnmarshalStrict(buf, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	entities := make([]entity.Entity, 0, len(manifest.Entities))
	byName := make(map[string]entity.Entity)
	for i, m := range manifest.Entities {
		e, err := m.build()
		if err != nil {
			return nil, fmt.Errorf("manifest entry %d: %w", i+1, err)
		}
		entities = append(entities, e)
		if m.Name != "" {
			if _, dup := byName[m.Name]; dup {
				return nil, fmt.Errorf("manifest entry %d: duplicate name %q", i+1, m.Name)
			}
			byName[m.Name] = e
		}
	}

	// Second pass, once every name is known.
	for i, m := range manifest.Entities {
		if len(m.DependsOn) == 0 {
			continue
		}
		setter, ok := entities[i].(dependsOnSetter)
		if !ok {
			return nil, fmt.Errorf("manifest entry %d: kind %s cannot declare depends_on", i+1, m.Kind)
		}
		deps := make([]entity.Entity, 0, len(m.DependsOn))
		for _, name := range m.DependsOn {
			dep, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("manifest entry %d: depends_on names unknown entry %q", i+1, name)
			}
			deps = append(deps, dep)
		}
		setter.SetDependsOn(deps...)
	}
	return entities, nil
}

func (m ManifestEntry) build() (entity.Entity, error) {
	kind := entity.Kind(strings.ToLower(m.Kind))
	switch kind {
	case entity.KindExtension:
		if m.Signature == "" {
			return nil, fmt.Errorf("extension requires signature")
		}
		schema := m.Schema
		if schema == "" {
			schema = "public"
		}
		return entity.NewPGExtension(schema, m.Signature), nil
	case entity.KindGrantTable:
		if m.Schema == "" || m.Table == "" || m.Role == "" || m.Grant == "" {
			return nil, fmt.Errorf("grant requires schema, table, role and grant")
		}
		return entity.NewPGGrantTable(
			m.Schema, m.Table, m.Role,
			entity.GrantKind(strings.ToUpper(m.Grant)),
			m.Columns, m.WithGrantOption)
	default:
		if m.SQL == "" {
			return nil, fmt.Errorf("kind %s requires sql", m.Kind)
		}
		return entity.FromSQL(kind, m.SQL)
	}
}
