package db

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// Open opens the plan database. Pragmas go through the DSN so they apply to
// every connection the pool creates.
func Open(path string) (*sql.DB, error) {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	sqldb, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	var fk int
	if err := sqldb.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("check foreign keys: %w", err)
	}
	if fk != 1 {
		_ = sqldb.Close()
		return nil, fmt.Errorf("foreign keys are disabled")
	}
	return sqldb, nil
}
