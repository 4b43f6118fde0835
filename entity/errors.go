package entity

import "fmt"

// ParseError reports SQL that could not be parsed into an entity of the
// requested kind. It is fatal: the engine never skips unparseable entities.
type ParseError struct {
	Kind Kind
	SQL  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse SQL into %s: %s (%q)", e.Kind, e.Err, e.SQL)
	}
	return fmt.Sprintf("failed to parse SQL into %s: %q", e.Kind, e.SQL)
}

func (e *ParseError) Unwrap() error { return e.Err }
