package entity

import (
	"fmt"

	"github.com/entdef/entdef/database"
)

// PGView is a PostgreSQL view.
type PGView struct {
	base
}

func NewPGView(schema, signature, definition string) *PGView {
	v := &PGView{base: newBase(schema, signature, definition)}
	return v
}

func (v *PGView) Kind() Kind { return KindView }

func (v *PGView) Identity() string {
	return identityOf(KindView, v.schema, v.signature)
}

func (v *PGView) CanonicalName() string {
	return canonicalName(v.schema, v.signature)
}

func (v *PGView) CreateStatement() string {
	return fmt.Sprintf(`CREATE VIEW %s."%s" AS %s;`, v.literalSchema(), v.signature, v.definition)
}

func (v *PGView) DropStatement(cascade bool) string {
	return fmt.Sprintf(`DROP VIEW %s."%s"%s`, v.literalSchema(), v.signature, cascadeSuffix(cascade))
}

// ReplaceStatements tries CREATE OR REPLACE first and fails over onto a drop
// followed by a create, since Postgres rejects OR REPLACE when the column
// list changed.
func (v *PGView) ReplaceStatements() []string {
	return []string{fmt.Sprintf(`
do $$
    begin
        CREATE OR REPLACE VIEW %[1]s."%[2]s" AS %[3]s;

    exception when others then
        DROP VIEW IF EXISTS %[1]s."%[2]s";

        CREATE VIEW %[1]s."%[2]s" AS %[3]s;
    end;
$$ language 'plpgsql'`, v.literalSchema(), v.signature, v.definition)}
}

func pgViewsFromDatabase(sess *database.Session, schemaPattern string) ([]Entity, error) {
	var rows []struct {
		SchemaName string `db:"schema_name"`
		ViewName   string `db:"view_name"`
		Definition string `db:"definition"`
	}
	err := sess.Select(&rows, `
		select
			schemaname as schema_name,
			viewname as view_name,
			definition
		from
			pg_views
		where
			schemaname not in ('pg_catalog', 'information_schema')
			and schemaname::text like ?`, schemaPattern)
	if err != nil {
		return nil, err
	}

	views := make([]Entity, len(rows))
	for i, r := range rows {
		views[i] = NewPGView(r.SchemaName, r.ViewName, r.Definition)
	}
	return views, nil
}

func cascadeSuffix(cascade bool) string {
	if cascade {
		return " CASCADE"
	}
	return ""
}
