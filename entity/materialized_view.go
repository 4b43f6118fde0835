package entity

import (
	"fmt"

	"github.com/entdef/entdef/database"
)

// PGMaterializedView is a PostgreSQL materialized view.
//
// Limitation carried from the underlying object kind: materialized views have
// no atomic replace form, so ReplaceStatements drops and recreates.
type PGMaterializedView struct {
	base
	withData bool
}

func NewPGMaterializedView(schema, signature, definition string, withData bool) *PGMaterializedView {
	return &PGMaterializedView{base: newBase(schema, signature, definition), withData: withData}
}

func (v *PGMaterializedView) Kind() Kind     { return KindMaterializedView }
func (v *PGMaterializedView) WithData() bool { return v.withData }

// WithoutData returns a copy that creates WITH NO DATA. Simulation always
// uses this form: only structural equivalence matters there and populating
// data is expensive.
func (v *PGMaterializedView) WithoutData() *PGMaterializedView {
	c := *v
	c.withData = false
	return &c
}

func (v *PGMaterializedView) Identity() string {
	return identityOf(KindMaterializedView, v.schema, v.signature)
}

func (v *PGMaterializedView) CanonicalName() string {
	return canonicalName(v.schema, v.signature)
}

func (v *PGMaterializedView) CreateStatement() string {
	return fmt.Sprintf(`CREATE MATERIALIZED VIEW %s."%s" AS %s WITH %sDATA;`,
		v.literalSchema(), v.signature, v.definition, noPrefix(!v.withData))
}

func (v *PGMaterializedView) DropStatement(cascade bool) string {
	return fmt.Sprintf(`DROP MATERIALIZED VIEW %s."%s"%s`, v.literalSchema(), v.signature, cascadeSuffix(cascade))
}

func (v *PGMaterializedView) ReplaceStatements() []string {
	return []string{
		fmt.Sprintf(`DROP MATERIALIZED VIEW IF EXISTS %s."%s";`, v.literalSchema(), v.signature),
		fmt.Sprintf(`CREATE MATERIALIZED VIEW %s."%s" AS %s WITH %sDATA`,
			v.literalSchema(), v.signature, v.definition, noPrefix(!v.withData)),
	}
}

func noPrefix(no bool) string {
	if no {
		return "NO "
	}
	return ""
}

func pgMaterializedViewsFromDatabase(sess *database.Session, schemaPattern string) ([]Entity, error) {
	var rows []struct {
		SchemaName  string `db:"schema_name"`
		ViewName    string `db:"view_name"`
		Definition  string `db:"definition"`
		IsPopulated bool   `db:"is_populated"`
	}
	err := sess.Select(&rows, `
		select
			schemaname as schema_name,
			matviewname as view_name,
			definition,
			ispopulated as is_populated
		from
			pg_matviews
		where
			schemaname not in ('pg_catalog', 'information_schema')
			and schemaname::text like ?`, schemaPattern)
	if err != nil {
		return nil, err
	}

	views := make([]Entity, len(rows))
	for i, r := range rows {
		views[i] = NewPGMaterializedView(r.SchemaName, r.ViewName, r.Definition, r.IsPopulated)
	}
	return views, nil
}
