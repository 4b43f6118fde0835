package mssql

import (
	"fmt"
	"net/url"

	_ "github.com/denisenkom/go-mssqldb"
	"github.com/jmoiron/sqlx"

	"github.com/entdef/entdef/database"
)

type MssqlDatabase struct {
	config database.Config
	db     *sqlx.DB
}

func NewDatabase(config database.Config) (database.Database, error) {
	db, err := sqlx.Open("sqlserver", buildDSN(config))
	if err != nil {
		return nil, err
	}

	return &MssqlDatabase{
		db:     db,
		config: config,
	}, nil
}

func (d *MssqlDatabase) DB() *sqlx.DB { return d.db }

func (d *MssqlDatabase) Dialect() database.Dialect { return database.DialectMSSQL }

func (d *MssqlDatabase) SavepointQueries() database.SavepointQueries {
	// SQL Server has no RELEASE form; rolled-back savepoints are simply
	// abandoned.
	return database.SavepointQueries{
		Savepoint:  "SAVE TRANSACTION %s",
		RollbackTo: "ROLLBACK TRANSACTION %s",
	}
}

func (d *MssqlDatabase) Close() error {
	return d.db.Close()
}

func buildDSN(config database.Config) string {
	query := url.Values{}
	query.Add("database", config.DbName)

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(config.User, config.Password),
		Host:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}
