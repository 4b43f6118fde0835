package entity

import (
	"fmt"

	"github.com/entdef/entdef/database"
)

// Introspector reflects every live entity of one kind within schemas matching
// the SQL LIKE pattern. Introspection is read-only.
type Introspector func(sess *database.Session, schemaPattern string) ([]Entity, error)

// The capability table: one introspector per kind, dispatched by tag instead
// of runtime type discovery. Order here fixes the order drop detection walks
// the kinds in.
var introspectors = []struct {
	kind    Kind
	dialect database.Dialect
	fn      Introspector
}{
	{KindExtension, database.DialectPostgres, pgExtensionsFromDatabase},
	{KindCompositeType, database.DialectPostgres, pgCompositeTypesFromDatabase},
	{KindFunction, database.DialectPostgres, pgFunctionsFromDatabase},
	{KindProcedure, database.DialectPostgres, pgProceduresFromDatabase},
	{KindView, database.DialectPostgres, pgViewsFromDatabase},
	{KindMaterializedView, database.DialectPostgres, pgMaterializedViewsFromDatabase},
	{KindTrigger, database.DialectPostgres, pgTriggersFromDatabase},
	{KindPolicy, database.DialectPostgres, pgPoliciesFromDatabase},
	{KindGrantTable, database.DialectPostgres, pgGrantTablesFromDatabase},
	{KindMSSQLView, database.DialectMSSQL, mssqlViewsFromDatabase},
}

// Kinds returns every kind usable against the given dialect, in a fixed
// deterministic order.
func Kinds(dialect database.Dialect) []Kind {
	var kinds []Kind
	for _, e := range introspectors {
		if e.dialect == dialect {
			kinds = append(kinds, e.kind)
		}
	}
	return kinds
}

// Introspect reflects every live entity of the given kind from the session's
// database, within schemas matching schemaPattern.
func Introspect(sess *database.Session, kind Kind, schemaPattern string) ([]Entity, error) {
	for _, e := range introspectors {
		if e.kind == kind {
			if e.dialect != sess.Dialect() {
				return nil, fmt.Errorf("kind %s is not supported on dialect %s", kind, sess.Dialect())
			}
			return e.fn(sess, schemaPattern)
		}
	}
	return nil, fmt.Errorf("unknown entity kind: %s", kind)
}
