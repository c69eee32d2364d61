// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mszylkowski/reactionsbackend/cliparse"
	"github.com/mszylkowski/reactionsbackend/db"
)

// Open builds the backend named by cfg.StoreBackend. Every backend starts
// empty.
func Open(ctx context.Context, cfg cliparse.Config) (PollStore, error) {
	var s PollStore
	var err error

	switch cfg.StoreBackend {
	case cliparse.StoreMemory, "":
		s = NewMemoryStore()
	case cliparse.StoreSQLite, cliparse.StorePostgres:
		var sqlStore *SQLStore
		dbType := db.TypeSQLite
		if cfg.StoreBackend == cliparse.StorePostgres {
			dbType = db.TypePostgres
		}
		if sqlStore, err = OpenSQLStore(dbType, cfg.DatabaseURL); err == nil {
			s = sqlStore
		}
	case cliparse.StoreRedis:
		var redisStore *RedisStore
		if redisStore, err = OpenRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix); err == nil {
			s = redisStore
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("poll store ready", "backend", cfg.StoreBackend)
	return s, nil
}
