package store

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
)

const memoryDSN = ":memory:"

// NewDB opens a DuckDB database. ":memory:" or "" opens a private in-memory
// database.
func NewDB(path string) (*sql.DB, error) {
	dsn := path
	if dsn == memoryDSN {
		dsn = ""
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to duckdb %q: %w", path, err)
	}

	return db, nil
}
