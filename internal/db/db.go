package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection pool. Persistence is an optional mirror
// of the in-memory job registry; the pipeline runs identically without it.
type DB struct {
	*sql.DB
}

func New(databaseURL string) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{conn}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
