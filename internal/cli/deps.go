package cli

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"gitlab.com/nqueens.net/internal/adapter/database/runrepository"
	memoryexecutors "gitlab.com/nqueens.net/internal/adapter/memory/executorport"
	redisexecutors "gitlab.com/nqueens.net/internal/adapter/redis/executorport"
	"gitlab.com/nqueens.net/internal/config"
	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/ports/secondary"
	"gitlab.com/nqueens.net/internal/core/services/run"
)

// setupRunService opens the run database when one is configured. The
// returned cleanup is always safe to call.
func setupRunService(ctx context.Context, cfg *config.DatabaseConfig, logger primary.Logger) (*run.RunService, func(), error) {
	if !cfg.Enabled() {
		return run.NewRunService(nil, logger), func() {}, nil
	}

	db, err := runrepository.Open(cfg.Driver, cfg.Url)
	if err != nil {
		return nil, nil, err
	}

	repo := runrepository.NewRunRepository(db, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	logger.Info("Persisting runs", "driver", cfg.Driver)
	return run.NewRunService(repo, logger), func() { db.Close() }, nil
}

// setupExecutorRegistry uses Redis when configured and memory otherwise
func setupExecutorRegistry(ctx context.Context, cfg *config.RedisConfig, logger primary.Logger) (secondary.ExecutorRepository, func(), error) {
	if !cfg.Enabled() {
		return memoryexecutors.NewExecutorRepository(), func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Url,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Recording executors in redis", "addr", cfg.Url)
	return redisexecutors.NewExecutorRepository(redisClient, logger), func() { redisClient.Close() }, nil
}
