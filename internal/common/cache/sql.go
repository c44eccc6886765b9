package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Dialect names the SQL flavour of a SQLStore.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQLStore keeps entries in a workflow_cache table. Writes are upserts, so
// concurrent writers to one key resolve last-write-wins.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

const createCacheTable = `CREATE TABLE IF NOT EXISTS workflow_cache (
	cache_key  TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// EnsureSchema creates the cache table when it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createCacheTable); err != nil {
		return fmt.Errorf("create workflow_cache: %w", err)
	}
	return nil
}

func (s *SQLStore) placeholders() (p1, p2, p3 string) {
	if s.dialect == DialectPostgres {
		return "$1", "$2", "$3"
	}
	return "?", "?", "?"
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	p1, _, _ := s.placeholders()
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM workflow_cache WHERE cache_key = "+p1, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s get %s: %w", s.dialect, key, err)
	}
	return []byte(value), true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	p1, p2, p3 := s.placeholders()
	query := fmt.Sprintf(`INSERT INTO workflow_cache (cache_key, value, updated_at) VALUES (%s, %s, %s)
ON CONFLICT (cache_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, p1, p2, p3)
	if _, err := s.db.ExecContext(ctx, query, key, string(value), s.now().UTC()); err != nil {
		return fmt.Errorf("%s set %s: %w", s.dialect, key, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	p1, _, _ := s.placeholders()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM workflow_cache WHERE cache_key = "+p1, key); err != nil {
		return fmt.Errorf("%s remove %s: %w", s.dialect, key, err)
	}
	return nil
}

func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	p1, _, _ := s.placeholders()
	query := fmt.Sprintf("SELECT cache_key FROM workflow_cache WHERE substr(cache_key, 1, %d) = %s ORDER BY cache_key",
		utf8.RuneCountInString(prefix), p1)
	rows, err := s.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("%s keys: %w", s.dialect, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLStore) Backend() string { return string(s.dialect) }
