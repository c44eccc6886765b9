package cache

import (
	"context"
	"fmt"

	"quote-workflow/internal/common/config"
	"quote-workflow/internal/common/database"
)

// Open builds the store selected by cfg.Cache.Backend and verifies the
// connection. The returned close function releases the backend.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Cache.Backend {
	case "", config.CacheBackendMemory:
		return NewMemoryStore(), noop, nil

	case config.CacheBackendRedis:
		client, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, noop, err
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, noop, err
		}
		return NewRedisStore(client.Client, cfg.Cache.KeyPrefix), client.Close, nil

	case config.CacheBackendPostgres:
		client, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, noop, err
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, noop, err
		}
		store := NewSQLStore(client.DB, DialectPostgres)
		if err := store.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, noop, err
		}
		return store, client.Close, nil

	case config.CacheBackendSQLite:
		client, err := database.NewSQLite(cfg.Database.SQLite)
		if err != nil {
			return nil, noop, err
		}
		store := NewSQLStore(client.DB, DialectSQLite)
		if err := store.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, noop, err
		}
		return store, client.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}
