package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "select 1", NormalizeWhitespace("  select\n\t 1 "))
	assert.Equal(t, "a b c", NormalizeWhitespace("a  b\r\nc"))
	assert.Equal(t, "", NormalizeWhitespace("   \n "))
}

func TestStripTerminatingSemicolon(t *testing.T) {
	assert.Equal(t, "select 1", StripTerminatingSemicolon("select 1;"))
	assert.Equal(t, "select 1", StripTerminatingSemicolon("  select 1 ;  "))
	assert.Equal(t, "select 1", StripTerminatingSemicolon("select 1"))
	// Only the terminating semicolon goes, not interior ones.
	assert.Equal(t, "begin select 1; end", StripTerminatingSemicolon("begin select 1; end;"))
}

func TestStripDoubleQuotes(t *testing.T) {
	assert.Equal(t, "public", StripDoubleQuotes(`"public"`))
	assert.Equal(t, "public", StripDoubleQuotes("public"))
}

func TestCoerceToQuoted(t *testing.T) {
	assert.Equal(t, `"public"`, CoerceToQuoted(`public`))
	assert.Equal(t, `"public"`, CoerceToQuoted(`"public"`))
	assert.Equal(t, `"public"."table"`, CoerceToQuoted(`public.table`))
	assert.Equal(t, `"public"."table"`, CoerceToQuoted(`"public".table`))
}

func TestCoerceToUnquoted(t *testing.T) {
	assert.Equal(t, `public`, CoerceToUnquoted(`"public"`))
	assert.Equal(t, `public.table`, CoerceToUnquoted(`"public"."table"`))
	assert.Equal(t, `public.table`, CoerceToUnquoted(`public.table`))
}
