// Package database holds the connection layer. It never deals with entity
// semantics; entities render their own SQL and execute it through a Session.
package database

import (
	"github.com/jmoiron/sqlx"
)

// Dialect identifies the SQL dialect behind a Database.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMSSQL    Dialect = "mssql"
)

type Config struct {
	DbName   string
	User     string
	Password string
	Host     string
	Port     int
	Socket   string
	SslMode  string
}

// SavepointQueries carries the dialect-specific savepoint syntax. Each field
// is a format string receiving the savepoint name. Release is empty for
// dialects without a release form.
type SavepointQueries struct {
	Savepoint  string
	RollbackTo string
	Release    string
}

// Abstraction layer for the supported database dialects.
type Database interface {
	DB() *sqlx.DB
	Dialect() Dialect
	SavepointQueries() SavepointQueries
	Close() error
}
