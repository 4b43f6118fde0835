package entity

import (
	"fmt"

	"github.com/entdef/entdef/database"
)

// MSSQLView is a SQL Server view. It follows the same contract as PGView with
// bracket quoting and CREATE OR ALTER as the replace form.
type MSSQLView struct {
	base
}

func NewMSSQLView(schema, signature, definition string) *MSSQLView {
	return &MSSQLView{base: newBase(schema, signature, definition)}
}

func (v *MSSQLView) Kind() Kind { return KindMSSQLView }

func (v *MSSQLView) Identity() string {
	return identityOf(KindMSSQLView, v.schema, v.signature)
}

func (v *MSSQLView) CanonicalName() string {
	return canonicalName(v.schema, v.signature)
}

func (v *MSSQLView) CreateStatement() string {
	return fmt.Sprintf("CREATE VIEW [%s].[%s] AS %s", v.schema, v.signature, v.definition)
}

// SQL Server drops never cascade.
func (v *MSSQLView) DropStatement(cascade bool) string {
	return fmt.Sprintf("DROP VIEW [%s].[%s]", v.schema, v.signature)
}

func (v *MSSQLView) ReplaceStatements() []string {
	return []string{fmt.Sprintf("CREATE OR ALTER VIEW [%s].[%s] AS %s", v.schema, v.signature, v.definition)}
}

func mssqlViewsFromDatabase(sess *database.Session, schemaPattern string) ([]Entity, error) {
	var rows []struct {
		SchemaName string `db:"schema_name"`
		ViewName   string `db:"view_name"`
		Definition string `db:"definition"`
	}
	err := sess.Select(&rows, `
		SELECT
			TABLE_SCHEMA as schema_name,
			TABLE_NAME as view_name,
			right(VIEW_DEFINITION, len(VIEW_DEFINITION) - charindex('AS', VIEW_DEFINITION) - 2) as definition
		FROM
			INFORMATION_SCHEMA.VIEWS
		WHERE
			TABLE_SCHEMA like ?`, schemaPattern)
	if err != nil {
		return nil, err
	}

	views := make([]Entity, len(rows))
	for i, r := range rows {
		views[i] = NewMSSQLView(r.SchemaName, r.ViewName, r.Definition)
	}
	return views, nil
}
