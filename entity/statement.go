package entity

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeWhitespace collapses every run of whitespace to a single space.
func NormalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// StripTerminatingSemicolon removes a terminating semicolon on a SQL statement if it exists.
func StripTerminatingSemicolon(sql string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";"))
}

// StripDoubleQuotes removes starting and ending double quotes.
func StripDoubleQuotes(sql string) string {
	sql = strings.TrimSuffix(strings.TrimSpace(sql), `"`)
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sql), `"`))
}

// CoerceToQuoted coerces a possibly qualified name to its double quoted form.
//
//	CoerceToQuoted(`public`) => `"public"`
//	CoerceToQuoted(`"public"`) => `"public"`
//	CoerceToQuoted(`public.table`) => `"public"."table"`
//	CoerceToQuoted(`"public".table`) => `"public"."table"`
func CoerceToQuoted(text string) string {
	if strings.Contains(text, ".") {
		schema, name, _ := strings.Cut(text, ".")
		return `"` + StripDoubleQuotes(schema) + `"."` + StripDoubleQuotes(name) + `"`
	}
	return `"` + StripDoubleQuotes(text) + `"`
}

// CoerceToUnquoted strips every double quote from a possibly qualified name.
//
//	CoerceToUnquoted(`"public"`) => `public`
//	CoerceToUnquoted(`"public".table`) => `public.table`
func CoerceToUnquoted(text string) string {
	return strings.ReplaceAll(text, `"`, "")
}
