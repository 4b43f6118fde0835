package entity

import (
	"fmt"

	"github.com/entdef/entdef/database"
)

// PGExtension is a PostgreSQL extension.
//
// Extensions install once per database, so the schema is not part of the
// identity. It is part of the definition instead: moving an extension to
// another schema surfaces as a Replace, rendered as ALTER EXTENSION ... SET
// SCHEMA.
type PGExtension struct {
	base
}

func NewPGExtension(schema, signature string) *PGExtension {
	e := &PGExtension{base: newBase(schema, signature, "")}
	e.definition = fmt.Sprintf("%s: %s %s", KindExtension, e.schema, e.signature)
	return e
}

func (e *PGExtension) Kind() Kind { return KindExtension }

func (e *PGExtension) Identity() string {
	return fmt.Sprintf("%s: %s", KindExtension, e.signature)
}

func (e *PGExtension) CanonicalName() string {
	return canonicalName(e.schema, e.signature)
}

func (e *PGExtension) CreateStatement() string {
	return fmt.Sprintf(`CREATE EXTENSION "%s" WITH SCHEMA %s;`, e.signature, e.literalSchema())
}

func (e *PGExtension) DropStatement(cascade bool) string {
	suffix := ""
	if cascade {
		suffix = " CASCADE"
	}
	return fmt.Sprintf(`DROP EXTENSION "%s"%s`, e.signature, suffix)
}

func (e *PGExtension) ReplaceStatements() []string {
	return []string{fmt.Sprintf(`ALTER EXTENSION "%s" SET SCHEMA %s`, e.signature, e.literalSchema())}
}

func pgExtensionsFromDatabase(sess *database.Session, schemaPattern string) ([]Entity, error) {
	var rows []struct {
		SchemaName    string `db:"schema_name"`
		ExtensionName string `db:"extension_name"`
	}
	err := sess.Select(&rows, `
		select
			np.nspname as schema_name,
			ext.extname as extension_name
		from
			pg_extension ext
			join pg_namespace np on ext.extnamespace = np.oid
		where
			np.nspname not in ('pg_catalog')
			and ext.extname != 'plpgsql'
			and np.nspname::text like ?`, schemaPattern)
	if err != nil {
		return nil, err
	}

	exts := make([]Entity, len(rows))
	for i, r := range rows {
		exts[i] = NewPGExtension(r.SchemaName, r.ExtensionName)
	}
	return exts, nil
}
