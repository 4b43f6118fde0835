package database

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Session is one open transaction on a Database, plus a LIFO stack of
// savepoints. The engine holds exactly one Session at a time per
// reconciliation phase and always finishes it with Rollback or Commit.
//
// Savepoints are the isolation mechanism for sandboxed simulation: statements
// executed after a savepoint are undone by rolling back to it, so nested
// simulation scopes compose as a stack. Releasing an outer savepoint
// invalidates the inner ones, which must already have been rolled back by the
// time control returns outward.
type Session struct {
	tx         *sqlx.Tx
	dialect    Dialect
	savepoints SavepointQueries
	stack      []string
}

// NewSession begins a transaction on d.
func NewSession(d Database) (*Session, error) {
	tx, err := d.DB().Beginx()
	if err != nil {
		return nil, err
	}
	return &Session{tx: tx, dialect: d.Dialect(), savepoints: d.SavepointQueries()}, nil
}

func (s *Session) Dialect() Dialect { return s.dialect }

// Exec executes a statement. Bind variables written as "?" are rebound to the
// driver's placeholder style when arguments are present; plain DDL passes
// through untouched.
func (s *Session) Exec(query string, args ...any) error {
	if len(args) > 0 {
		query = s.tx.Rebind(query)
	}
	_, err := s.tx.Exec(query, args...)
	return err
}

// Select runs a query and scans all rows into dest, a slice of structs.
func (s *Session) Select(dest any, query string, args ...any) error {
	if len(args) > 0 {
		query = s.tx.Rebind(query)
	}
	return s.tx.Select(dest, query, args...)
}

// Get runs a query expected to return one row and scans it into dest.
func (s *Session) Get(dest any, query string, args ...any) error {
	if len(args) > 0 {
		query = s.tx.Rebind(query)
	}
	return s.tx.Get(dest, query, args...)
}

// Savepoint opens a new savepoint and pushes it on the stack.
func (s *Session) Savepoint() (string, error) {
	name := "entdef_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.Exec(fmt.Sprintf(s.savepoints.Savepoint, name)); err != nil {
		return "", err
	}
	s.stack = append(s.stack, name)
	return name, nil
}

// RollbackTo undoes every statement executed since the named savepoint was
// opened, popping any savepoints stacked above it. The named savepoint itself
// stays open and can be rolled back to again.
func (s *Session) RollbackTo(name string) error {
	if err := s.Exec(fmt.Sprintf(s.savepoints.RollbackTo, name)); err != nil {
		return err
	}
	s.popAbove(name)
	return nil
}

// Release discards the named savepoint without undoing its statements.
func (s *Session) Release(name string) error {
	defer func() {
		s.popAbove(name)
		s.pop(name)
	}()
	if s.savepoints.Release == "" {
		return nil
	}
	return s.Exec(fmt.Sprintf(s.savepoints.Release, name))
}

func (s *Session) popAbove(name string) {
	for len(s.stack) > 0 && s.stack[len(s.stack)-1] != name {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

func (s *Session) pop(name string) {
	if len(s.stack) > 0 && s.stack[len(s.stack)-1] == name {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// Depth reports how many savepoints are currently open.
func (s *Session) Depth() int { return len(s.stack) }

// Rollback aborts the whole transaction, including every open savepoint.
func (s *Session) Rollback() error {
	s.stack = nil
	return s.tx.Rollback()
}

// Commit commits the transaction.
func (s *Session) Commit() error {
	s.stack = nil
	return s.tx.Commit()
}
