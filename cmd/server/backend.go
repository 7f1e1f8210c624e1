package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"secureupdate/internal/platform/config"
	redisclient "secureupdate/internal/platform/redis"
	"secureupdate/internal/updates/service"
	"secureupdate/internal/updates/store"
)

// registryBackend is the storage selected by STORAGE_BACKEND.
type registryBackend struct {
	updates service.UpdateStore
	state   service.StateStore
	// tx is nil for backends without SQL transactions; the service then
	// serializes calls in memory.
	tx      service.StoreTx
	closers []func() error
}

func (b *registryBackend) Close() error {
	var firstErr error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openBackend(ctx context.Context, cfg config.Server, logger *slog.Logger) (*registryBackend, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := sql.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.InfoContext(ctx, "registry backend ready", "backend", cfg.StorageBackend, "driver", cfg.DatabaseDriver)
		return &registryBackend{updates: pg, state: pg, tx: newSQLRegistryTx(db), closers: []func() error{db.Close}}, nil

	case config.BackendSQLite:
		lite, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "registry backend ready", "backend", cfg.StorageBackend, "path", cfg.SQLitePath)
		return &registryBackend{updates: lite, state: lite, tx: newSQLRegistryTx(lite.DB()), closers: []func() error{lite.Close}}, nil

	case config.BackendRedis:
		client, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		rs := store.NewRedis(client.Client)
		logger.InfoContext(ctx, "registry backend ready", "backend", cfg.StorageBackend)
		return &registryBackend{updates: rs, state: rs, closers: []func() error{client.Close}}, nil

	default:
		mem := store.NewInMemory()
		logger.InfoContext(ctx, "registry backend ready", "backend", config.BackendMemory)
		return &registryBackend{updates: mem, state: mem}, nil
	}
}
