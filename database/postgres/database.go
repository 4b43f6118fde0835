package postgres

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/entdef/entdef/database"
)

type PostgresDatabase struct {
	config database.Config
	db     *sqlx.DB
}

func NewDatabase(config database.Config) (database.Database, error) {
	db, err := sqlx.Open("postgres", buildDSN(config))
	if err != nil {
		return nil, err
	}

	return &PostgresDatabase{
		db:     db,
		config: config,
	}, nil
}

// NewDatabaseDSN opens a connection with a raw DSN or URL, bypassing Config.
func NewDatabaseDSN(dsn string) (database.Database, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresDatabase{db: db}, nil
}

func (d *PostgresDatabase) DB() *sqlx.DB { return d.db }

func (d *PostgresDatabase) Dialect() database.Dialect { return database.DialectPostgres }

func (d *PostgresDatabase) SavepointQueries() database.SavepointQueries {
	return database.SavepointQueries{
		Savepoint:  "SAVEPOINT %s",
		RollbackTo: "ROLLBACK TO SAVEPOINT %s",
		Release:    "RELEASE SAVEPOINT %s",
	}
}

func (d *PostgresDatabase) Close() error {
	return d.db.Close()
}

func buildDSN(config database.Config) string {
	user := config.User
	password := config.Password
	dbName := config.DbName
	host := ""
	var options []string

	if config.Socket == "" {
		host = fmt.Sprintf("%s:%d", config.Host, config.Port)
	} else {
		// We want to use either:
		// - postgres://user:@%2Fvar%2Frun%2Fpostgresql/dbname
		// - postgres://user:@/dbname?host=/var/run/postgresql
		// As the first form would be rejected by the URL parser,
		// we resort to the second form.
		options = append(options, fmt.Sprintf("host=%s", config.Socket))
	}

	if config.SslMode != "" {
		options = append(options, fmt.Sprintf("sslmode=%s", config.SslMode))
	} else if sslmode, ok := os.LookupEnv("PGSSLMODE"); ok {
		options = append(options, fmt.Sprintf("sslmode=%s", sslmode))
	}

	// `QueryEscape` instead of `PathEscape` so that colon can be escaped.
	return fmt.Sprintf("postgres://%s:%s@%s/%s?%s", url.QueryEscape(user), url.QueryEscape(password), host, dbName, strings.Join(options, "&"))
}
