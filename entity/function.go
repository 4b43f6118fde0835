package entity

import (
	"fmt"
	"strings"

	"github.com/entdef/entdef/database"
)

// PGFunction is a PostgreSQL function. With the procedure flag set it renders
// and introspects as a procedure instead; the two kinds share everything but
// the keyword and the pg_proc.prokind value.
type PGFunction struct {
	base
	isProcedure bool
}

// NewPGFunction builds a function entity. The signature is the call signature
// including the parenthesized parameter list; the definition is the remaining
// body and identifiers, starting at the returns clause.
func NewPGFunction(schema, signature, definition string) *PGFunction {
	return &PGFunction{base: newBase(schema, signature, definition)}
}

// NewPGProcedure builds a procedure entity. The definition starts after the
// signature (procedures have no returns clause).
func NewPGProcedure(schema, signature, definition string) *PGFunction {
	return &PGFunction{base: newBase(schema, signature, definition), isProcedure: true}
}

func (f *PGFunction) Kind() Kind {
	if f.isProcedure {
		return KindProcedure
	}
	return KindFunction
}

func (f *PGFunction) IsProcedure() bool { return f.isProcedure }

func (f *PGFunction) Identity() string {
	return identityOf(f.Kind(), f.schema, f.signature)
}

func (f *PGFunction) CanonicalName() string {
	return canonicalName(f.schema, f.signature)
}

func (f *PGFunction) keyword() string {
	if f.isProcedure {
		return "PROCEDURE"
	}
	return "FUNCTION"
}

// literalSignature adds quoting around the function name when emitting SQL,
// e.g. `toUpper(text)` -> `"toUpper"(text)`.
func (f *PGFunction) literalSignature() string {
	name, remainder, _ := strings.Cut(f.signature, "(")
	return `"` + strings.TrimSpace(name) + `"(` + remainder
}

func (f *PGFunction) CreateStatement() string {
	return fmt.Sprintf("CREATE %s %s.%s %s", f.keyword(), f.literalSchema(), f.literalSignature(), f.definition)
}

func (f *PGFunction) DropStatement(cascade bool) string {
	name, params := splitSignature(f.signature)
	return fmt.Sprintf(`DROP %s %s."%s"(%s)%s`, f.keyword(), f.literalSchema(), name, dropParameters(params), cascadeSuffix(cascade))
}

func (f *PGFunction) ReplaceStatements() []string {
	return []string{fmt.Sprintf("CREATE OR REPLACE %s %s.%s %s", f.keyword(), f.literalSchema(), f.literalSignature(), f.definition)}
}

func splitSignature(signature string) (name, params string) {
	name, params, found := strings.Cut(signature, "(")
	name = strings.TrimSpace(name)
	if !found {
		return name, ""
	}
	params = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(params), ")"))
	return name, params
}

// dropParameters strips DEFAULT clauses from a parameter list, since drop
// statements identify overloads by parameter types alone.
//
// NOTE: a text parameter whose default contains a comma still splits wrong.
func dropParameters(params string) string {
	if params == "" {
		return ""
	}
	parts := strings.Split(params, ",")
	for i, p := range parts {
		lower := strings.ToLower(p)
		if idx := strings.Index(lower, "default"); idx >= 0 {
			p = p[:idx]
		}
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// pg_depend filter keeps extension-owned functions out of reconciliation.
const functionQuery = `
	with extension_functions as (
		select
			objid as extension_function_oid
		from
			pg_depend
		where
			deptype = 'e'
			and classid = 'pg_proc'::regclass
	)
	select
		n.nspname as function_schema,
		p.proname as function_name,
		case
			when l.lanname = 'internal' then p.prosrc
			else pg_get_functiondef(p.oid)
		end as create_statement
	from
		pg_proc p
		left join pg_namespace n on p.pronamespace = n.oid
		left join pg_language l on p.prolang = l.oid
		left join extension_functions ef on p.oid = ef.extension_function_oid
	where
		n.nspname not in ('pg_catalog', 'information_schema')
		and ef.extension_function_oid is null
		and n.nspname::text like ?
		and p.prokind = ?`

func pgRoutinesFromDatabase(sess *database.Session, schemaPattern, prokind string) ([]Entity, error) {
	var rows []struct {
		Schema          string `db:"function_schema"`
		Name            string `db:"function_name"`
		CreateStatement string `db:"create_statement"`
	}
	if err := sess.Select(&rows, functionQuery, schemaPattern, prokind); err != nil {
		return nil, err
	}

	funcs := make([]Entity, len(rows))
	for i, r := range rows {
		f, err := ParseFunction(r.CreateStatement)
		if err != nil {
			return nil, err
		}
		funcs[i] = f
	}
	return funcs, nil
}

func pgFunctionsFromDatabase(sess *database.Session, schemaPattern string) ([]Entity, error) {
	return pgRoutinesFromDatabase(sess, schemaPattern, "f")
}

func pgProceduresFromDatabase(sess *database.Session, schemaPattern string) ([]Entity, error) {
	return pgRoutinesFromDatabase(sess, schemaPattern, "p")
}
