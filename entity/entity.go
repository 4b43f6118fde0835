// Package entity models replaceable database schema objects: the closed set
// of object kinds the reconciliation engine understands, their rendering to
// SQL statements, and their introspection from a live database.
package entity

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Kind tags each entity variant. The set is closed; new kinds register an
// introspector in registry.go.
type Kind string

const (
	KindFunction         Kind = "function"
	KindProcedure        Kind = "procedure"
	KindView             Kind = "view"
	KindMaterializedView Kind = "materialized_view"
	KindTrigger          Kind = "trigger"
	KindPolicy           Kind = "policy"
	KindGrantTable       Kind = "grant_table"
	KindExtension        Kind = "extension"
	KindCompositeType    Kind = "composite_type"
	KindMSSQLView        Kind = "mssql_view"
)

// Entity is a SQL object that can be replaced.
//
// An entity is a value object: its identity is fixed at construction and no
// method mutates it. Two entities denote the same database object iff their
// Identity strings are equal, independent of definition.
type Entity interface {
	Kind() Kind
	Schema() string
	Signature() string
	Definition() string

	// Identity is the kind+schema+signature key that determines whether two
	// entities denote the same object. Variants whose signature alone is
	// ambiguous (triggers) include their target in the key.
	Identity() string

	// CanonicalName derives a deterministic, collision-resistant handle from
	// schema and signature, usable as a variable name in generated code.
	CanonicalName() string

	// DependsOn returns the explicitly declared dependencies, if any. When
	// non-empty the declaration is authoritative and implicit dependency
	// discovery is skipped for this entity.
	DependsOn() []Entity

	// CreateStatement renders the SQL "create" statement.
	CreateStatement() string
	// DropStatement renders the SQL "drop" statement.
	DropStatement(cascade bool) string
	// ReplaceStatements renders the statements that replace an existing
	// object with this definition. Kinds without an atomic replace form
	// return a drop-if-exists followed by a create.
	ReplaceStatements() []string
}

// base carries the fields shared by every variant. Schema and signature are
// whitespace-normalized and stored unquoted; quoting is applied at render
// time only.
type base struct {
	schema     string
	signature  string
	definition string
	dependsOn  []Entity
}

func newBase(schema, signature, definition string) base {
	return base{
		schema:     CoerceToUnquoted(NormalizeWhitespace(schema)),
		signature:  CoerceToUnquoted(NormalizeWhitespace(signature)),
		definition: StripTerminatingSemicolon(definition),
	}
}

func (b *base) Schema() string      { return b.schema }
func (b *base) Signature() string   { return b.signature }
func (b *base) Definition() string  { return b.definition }
func (b *base) DependsOn() []Entity { return b.dependsOn }

// SetDependsOn declares the explicit, ordered dependency set of this entity.
func (b *base) SetDependsOn(deps ...Entity) { b.dependsOn = deps }

// literalSchema wraps the schema name in literal quotes for emitting SQL.
func (b *base) literalSchema() string { return CoerceToQuoted(b.schema) }

func identityOf(kind Kind, schema, signature string) string {
	return fmt.Sprintf("%s: %s.%s", kind, schema, signature)
}

// canonicalName lowercases schema and object name and disambiguates
// overloaded signatures with a short hash of the normalized parameter list.
func canonicalName(schema, signature string) string {
	name, params, overloaded := strings.Cut(signature, "(")
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	out := strings.ToLower(schema) + "_" + name
	if overloaded {
		params = NormalizeWhitespace(strings.ToLower(strings.TrimSuffix(strings.TrimSpace(params), ")")))
		if params != "" {
			h := fnv.New32a()
			h.Write([]byte(params))
			out = fmt.Sprintf("%s_%08x", out, h.Sum32())
		}
	}
	return strings.ReplaceAll(out, ".", "_")
}
