package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AmonBrollo/FlashLingo/internal/config"
	"github.com/AmonBrollo/FlashLingo/internal/database"
	"github.com/AmonBrollo/FlashLingo/internal/domain"
	"github.com/AmonBrollo/FlashLingo/internal/repository"
)

// openStore connects to the configured cache store and migrates it. The
// returned func releases it.
func openStore(ctx context.Context, cfg config.StoreConfig) (domain.CacheStorage, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		slog.Warn("using in-memory cache store; contents are lost on restart")
		return repository.NewMemoryCacheStorage(), func() {}, nil

	case config.StoreSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		if err := database.RunSQLiteMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repository.NewSQLiteCacheStorage(db), func() { db.Close() }, nil

	case config.StorePostgres:
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrations(ctx, db.Pool()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repository.NewPostgresCacheStorage(db.Pool()), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache store %q", cfg.Store)
	}
}
