package store

import (
	"context"
	"fmt"
	"log/slog"
)

// Поддерживаемые значения STORE_BACKEND.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// OpenConfig — параметры подключения к хранилищу.
type OpenConfig struct {
	Backend     string
	RedisURL    string
	DatabaseURL string
	Logger      *slog.Logger
}

// Open создаёт KVStore с выбранным backend.
func Open(ctx context.Context, cfg OpenConfig) (*KVStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case BackendRedis, "":
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info("state store connected", "backend", BackendRedis)
		return New(NewRedisBackend(client)), nil

	case BackendPostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		backend := NewPostgresBackend(pool)
		if err := backend.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("state store connected", "backend", BackendPostgres)
		return New(backend), nil

	case BackendMemory:
		logger.Warn("using in-memory state store, state is not shared between processes")
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
