package entity

import (
	"fmt"
	"strings"

	"github.com/entdef/entdef/database"
)

// PGCompositeType is a PostgreSQL composite type. The definition is the
// attribute list including parentheses, e.g. "(width int, height int)".
type PGCompositeType struct {
	base
}

func NewPGCompositeType(schema, signature, definition string) *PGCompositeType {
	return &PGCompositeType{base: newBase(schema, signature, definition)}
}

func (t *PGCompositeType) Kind() Kind { return KindCompositeType }

func (t *PGCompositeType) Identity() string {
	return identityOf(KindCompositeType, t.schema, t.signature)
}

func (t *PGCompositeType) CanonicalName() string {
	return canonicalName(t.schema, t.signature)
}

func (t *PGCompositeType) CreateStatement() string {
	return fmt.Sprintf(`CREATE TYPE %s."%s" AS %s;`, t.literalSchema(), t.signature, t.definition)
}

func (t *PGCompositeType) DropStatement(cascade bool) string {
	return fmt.Sprintf(`DROP TYPE %s."%s"%s`, t.literalSchema(), t.signature, cascadeSuffix(cascade))
}

// attributes splits the parenthesized attribute list into (name, type) pairs.
func (t *PGCompositeType) attributes() [][2]string {
	inner := t.definition
	if i := strings.Index(inner, "("); i >= 0 {
		inner = inner[i+1:]
	}
	if i := strings.LastIndex(inner, ")"); i >= 0 {
		inner = inner[:i]
	}
	var attrs [][2]string
	for _, attr := range strings.Split(inner, ",") {
		name, typ, found := strings.Cut(NormalizeWhitespace(attr), " ")
		if !found || name == "" {
			continue
		}
		attrs = append(attrs, [2]string{name, typ})
	}
	return attrs
}

// ReplaceStatements renders a DO block that creates the type, or, when it
// already exists, alters it attribute by attribute: types have no OR REPLACE
// form and a plain drop fails once any table column uses the type.
func (t *PGCompositeType) ReplaceStatements() []string {
	attrs := t.attributes()
	names := make([]string, len(attrs))
	types := make([]string, len(attrs))
	for i, attr := range attrs {
		names[i] = "'" + attr[0] + "'"
		types[i] = "'" + attr[1] + "'"
	}

	return []string{fmt.Sprintf(`
DO $$
DECLARE
    v_type_name VARCHAR;
    v_schema VARCHAR;
    v_new_names VARCHAR[];
    v_new_types VARCHAR[];
    v_old_attrs pg_attribute[];
    v_position INTEGER;
BEGIN
    CREATE TYPE %[1]s.%[2]s AS %[3]s;
EXCEPTION WHEN duplicate_object THEN
    v_schema := '%[4]s';
    v_type_name := '%[2]s';
    v_new_names := ARRAY[%[5]s]::VARCHAR[];
    v_new_types := ARRAY[%[6]s]::VARCHAR[];

    -- get old attributes
    SELECT
        array_agg(a)
    INTO v_old_attrs
    FROM pg_type
    LEFT JOIN pg_namespace ON pg_type.typnamespace = pg_namespace.oid
    LEFT JOIN pg_class ON pg_type.typrelid = pg_class.oid
    LEFT JOIN pg_attribute a ON a.attrelid = pg_type.typrelid
    WHERE
        typtype = 'c'
        AND (pg_class.relkind IS NULL OR pg_class.relkind <> 'r')
        AND nspname NOT IN ('pg_catalog', 'information_schema')
        AND pg_type.typname = v_type_name
        AND nspname::text like v_schema
        AND a.attisdropped = false;

    IF v_old_attrs IS NOT NULL THEN
        FOR i IN 1..cardinality(v_old_attrs) LOOP
            v_position := array_position(v_new_names, v_old_attrs[i].attname);
            IF v_position IS NOT NULL THEN
                IF v_old_attrs[i].atttypid != to_regtype(v_new_types[v_position])
                THEN
                    -- type of attribute changed
                    EXECUTE format('ALTER TYPE "%%s".%%s ALTER ATTRIBUTE %%s SET DATA TYPE %%s', v_schema, v_type_name, v_old_attrs[i].attname, v_new_types[v_position]);
                END IF;
            ELSE
                -- attribute removed
                EXECUTE format('ALTER TYPE "%%s".%%s DROP ATTRIBUTE %%s', v_schema, v_type_name, v_old_attrs[i].attname);
            END IF;
        END LOOP;
    END IF;
    FOR i IN 1..cardinality(v_new_names) LOOP
        v_position := array_position(ARRAY(SELECT attname FROM unnest(v_old_attrs)), v_new_names[i]);
        IF v_position IS NULL THEN
            -- attribute added
            EXECUTE format('ALTER TYPE "%%s".%%s ADD ATTRIBUTE %%s %%s', v_schema, v_type_name, v_new_names[i], v_new_types[i]);
        END IF;
    END LOOP;
END;
$$;`, t.literalSchema(), t.signature, t.definition, t.schema, strings.Join(names, ", "), strings.Join(types, ", "))}
}

func pgCompositeTypesFromDatabase(sess *database.Session, schemaPattern string) ([]Entity, error) {
	var rows []struct {
		Schema     string `db:"schema"`
		Signature  string `db:"signature"`
		Definition string `db:"definition"`
	}
	err := sess.Select(&rows, `
		SELECT
			nspname AS schema,
			pg_type.typname AS signature,
			string_agg(a.attname || ' ' || format_type(a.atttypid, a.atttypmod), ', ' ORDER BY a.attnum)
				AS definition
		FROM pg_type
		LEFT JOIN pg_namespace ON pg_type.typnamespace = pg_namespace.oid
		LEFT JOIN pg_class ON pg_type.typrelid = pg_class.oid
		LEFT JOIN pg_attribute a ON a.attrelid = pg_type.typrelid
		WHERE
			typtype = 'c'
			AND (pg_class.relkind IS NULL OR pg_class.relkind <> 'r')
			AND nspname NOT IN ('pg_catalog', 'information_schema')
			AND nspname::text like ?
			AND a.attisdropped = false
		GROUP BY pg_type.typname, pg_namespace.nspname, pg_type.oid`, schemaPattern)
	if err != nil {
		return nil, err
	}

	types := make([]Entity, len(rows))
	for i, r := range rows {
		types[i] = NewPGCompositeType(r.Schema, r.Signature, "("+r.Definition+")")
	}
	return types, nil
}
