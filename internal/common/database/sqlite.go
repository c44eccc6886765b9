// internal/common/database/sqlite.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"quote-workflow/internal/common/config"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient is the single-file store used by single-node deployments.
type SQLiteClient struct {
	DB *sql.DB
}

// NewSQLite opens (creating if needed) the database at cfg.Path.
// ":memory:" gives a throwaway database.
func NewSQLite(cfg config.SQLiteConfig) (*SQLiteClient, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// sqlite serialises writers; one connection also keeps :memory: alive.
	db.SetMaxOpenConns(1)

	return &SQLiteClient{DB: db}, nil
}

func (c *SQLiteClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *SQLiteClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
