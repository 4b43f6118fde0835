package entity

import (
	"fmt"
	"regexp"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v2"
)

// Textual grammars for the object kinds Postgres reflects as full CREATE
// statements. These are deliberately narrow: they split well-formed
// statements into the entity fields, they do not validate arbitrary SQL.
var (
	viewPattern = regexp.MustCompile(
		`(?is)^\s*create\s+(?:or\s+replace\s+)?view\s+([^.\s]+)\.(.+?)\s+as\s+(.+)$`)

	materializedViewPatterns = []struct {
		re       *regexp.Regexp
		withData bool
	}{
		{regexp.MustCompile(`(?is)^\s*create\s+materialized\s+view\s+([^.\s]+)\.(.+?)\s+as\s+(.+?)\s+with\s+no\s+data\s*$`), false},
		{regexp.MustCompile(`(?is)^\s*create\s+materialized\s+view\s+([^.\s]+)\.(.+?)\s+as\s+(.+?)\s+with\s+data\s*$`), true},
		{regexp.MustCompile(`(?is)^\s*create\s+materialized\s+view\s+([^.\s]+)\.(.+?)\s+as\s+(.+)$`), true},
	}

	triggerPattern = regexp.MustCompile(
		`(?is)^\s*create\s+(constraint\s+)?trigger\s+(\S+)\s+(.+?)\s+on\s+(\S+)\s+(.+)$`)

	triggerDefinitionPattern = regexp.MustCompile(
		`(?is)^\s*(.+?)\s+on\s+(\S+)\s+(.+)$`)

	policyPattern = regexp.MustCompile(
		`(?is)^\s*create\s+policy\s+(\S+)\s+on\s+([^.\s]+)\.(\S+)\s+(.+)$`)

	compositeTypePattern = regexp.MustCompile(
		`(?is)^\s*create\s+type\s+([^.\s]+)\.(\S+)\s+as\s+(\(.+\))\s*;?\s*$`)

	functionSplitPattern = regexp.MustCompile(
		`(?is)^\s*create\s+(?:or\s+replace\s+)?function\s+(?:([^.\s(]+)\.)?(.+?)\s+(returns\s+.+)$`)

	procedureSplitPattern = regexp.MustCompile(
		`(?is)^\s*create\s+(?:or\s+replace\s+)?procedure\s+(?:([^.\s(]+)\.)?([^(]+\(.*?\))\s+(.+)$`)

	mssqlViewPattern = regexp.MustCompile(
		`(?is)^\s*create\s+(?:or\s+alter\s+)?view\s+([^.\s]+)\.(.+?)\s+as\s+(.+)$`)
)

// FromSQL parses a raw CREATE statement into an entity of the given kind.
func FromSQL(kind Kind, sql string) (Entity, error) {
	switch kind {
	case KindView:
		return ParseView(sql)
	case KindMaterializedView:
		return ParseMaterializedView(sql)
	case KindTrigger:
		return ParseTrigger(sql)
	case KindPolicy:
		return ParsePolicy(sql)
	case KindCompositeType:
		return ParseCompositeType(sql)
	case KindFunction, KindProcedure:
		return ParseFunction(sql)
	case KindMSSQLView:
		return ParseMSSQLView(sql)
	}
	return nil, &ParseError{Kind: kind, SQL: sql, Err: fmt.Errorf("kind has no SQL grammar")}
}

func ParseView(sql string) (*PGView, error) {
	m := viewPattern.FindStringSubmatch(sql)
	if m == nil {
		return nil, &ParseError{Kind: KindView, SQL: sql}
	}
	// A signature may carry a column list, e.g. my_view (col1, col2); drop it.
	signature, _, _ := strings.Cut(m[2], "(")
	return NewPGView(m[1], signature, StripTerminatingSemicolon(m[3])), nil
}

func ParseMaterializedView(sql string) (*PGMaterializedView, error) {
	// The WITH [NO] DATA clause is optional, so the grammars are tried from
	// most to least specific against the semicolon-stripped statement.
	stripped := StripTerminatingSemicolon(sql)
	for _, g := range materializedViewPatterns {
		m := g.re.FindStringSubmatch(stripped)
		if m == nil {
			continue
		}
		signature, _, _ := strings.Cut(m[2], "(")
		return NewPGMaterializedView(m[1], signature, m[3], g.withData), nil
	}
	return nil, &ParseError{Kind: KindMaterializedView, SQL: sql}
}

func ParseTrigger(sql string) (*PGTrigger, error) {
	m := triggerPattern.FindStringSubmatch(sql)
	if m == nil {
		return nil, &ParseError{Kind: KindTrigger, SQL: sql}
	}
	isConstraint := m[1] != ""
	signature := StripDoubleQuotes(m[2])
	event := m[3]
	onEntity := CoerceToUnquoted(m[4])
	action := StripTerminatingSemicolon(m[5])

	if !strings.Contains(onEntity, ".") {
		onEntity = "public." + onEntity
	}
	schema, _, _ := strings.Cut(onEntity, ".")

	definition := fmt.Sprintf("%s ON %s %s", event, onEntity, action)
	return NewPGConstraintTrigger(schema, signature, definition, onEntity, isConstraint), nil
}

func ParsePolicy(sql string) (*PGPolicy, error) {
	m := policyPattern.FindStringSubmatch(sql)
	if m == nil {
		return nil, &ParseError{Kind: KindPolicy, SQL: sql}
	}
	signature := StripDoubleQuotes(m[1]) + "." + StripDoubleQuotes(m[3])
	return NewPGPolicy(m[2], signature, StripTerminatingSemicolon(m[4])), nil
}

func ParseCompositeType(sql string) (*PGCompositeType, error) {
	m := compositeTypePattern.FindStringSubmatch(sql)
	if m == nil {
		return nil, &ParseError{Kind: KindCompositeType, SQL: sql}
	}
	return NewPGCompositeType(m[1], StripDoubleQuotes(m[2]), m[3]), nil
}

func ParseMSSQLView(sql string) (*MSSQLView, error) {
	m := mssqlViewPattern.FindStringSubmatch(sql)
	if m == nil {
		return nil, &ParseError{Kind: KindMSSQLView, SQL: sql}
	}
	unbracket := func(s string) string {
		return strings.NewReplacer("[", "", "]", "").Replace(s)
	}
	signature, _, _ := strings.Cut(m[2], "(")
	return NewMSSQLView(unbracket(m[1]), unbracket(signature), m[3]), nil
}

// ParseFunction parses a CREATE FUNCTION or CREATE PROCEDURE statement, as
// written by hand or as rendered by pg_get_functiondef. The statement is run
// through the real Postgres grammar first: that settles whether it is a
// function or a procedure and rejects invalid SQL before the engine ever
// tries to simulate it.
func ParseFunction(sql string) (*PGFunction, error) {
	stmt, err := parseCreateFunctionStmt(sql)
	if err != nil {
		return nil, &ParseError{Kind: KindFunction, SQL: sql, Err: err}
	}

	pattern := functionSplitPattern
	kind := KindFunction
	if stmt.IsProcedure {
		pattern = procedureSplitPattern
		kind = KindProcedure
	}

	m := pattern.FindStringSubmatch(StripTerminatingSemicolon(sql))
	if m == nil {
		return nil, &ParseError{Kind: kind, SQL: sql}
	}
	schema := m[1]
	if schema == "" {
		schema = "public"
	}
	signature := unquoteSignature(m[2])
	definition := m[3]

	if stmt.IsProcedure {
		return NewPGProcedure(schema, signature, definition), nil
	}
	return NewPGFunction(schema, signature, definition), nil
}

func parseCreateFunctionStmt(sql string) (*pgquery.CreateFunctionStmt, error) {
	result, err := pgquery.Parse(sql)
	if err != nil {
		return nil, err
	}
	if len(result.Stmts) != 1 {
		return nil, fmt.Errorf("expected 1 statement, got %d", len(result.Stmts))
	}
	node, ok := result.Stmts[0].Stmt.Node.(*pgquery.Node_CreateFunctionStmt)
	if !ok {
		return nil, fmt.Errorf("expected CREATE FUNCTION, got %T", result.Stmts[0].Stmt.Node)
	}
	return node.CreateFunctionStmt, nil
}

// unquoteSignature removes the quotes around a quoted function name, leaving
// any quoting inside the parameter list untouched.
func unquoteSignature(signature string) string {
	signature = strings.TrimSpace(signature)
	if !strings.HasPrefix(signature, `"`) {
		return signature
	}
	return strings.Replace(signature, `"`, "", 2)
}
