package executorport

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/nqueens.net/internal/core/ports/primary"
	"gitlab.com/nqueens.net/internal/core/ports/secondary"
	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

var _ secondary.ExecutorRepository = (*ExecutorRepository)(nil)

const (
	executorKeyPrefix  = "executor:id:"
	executorRankKey    = "executor:ranks"
	executorExpiration = 24 * time.Hour
)

// ExecutorRepository implements the ExecutorRepository interface with Redis
type ExecutorRepository struct {
	redisClient *redis.Client
	logger      primary.Logger
}

// NewExecutorRepository creates a new Redis executor repository
func NewExecutorRepository(redisClient *redis.Client, logger primary.Logger) *ExecutorRepository {
	return &ExecutorRepository{
		redisClient: redisClient,
		logger:      logger,
	}
}

// SaveExecutor saves executor information to Redis
func (r *ExecutorRepository) SaveExecutor(ctx context.Context, executor *domain.ExecutorInfo) error {
	executorJSON, err := json.Marshal(executor)
	if err != nil {
		r.logger.Error("Failed to marshal executor info", "error", err)
		return fmt.Errorf("failed to marshal executor info: %w", err)
	}

	executorKey := executorKeyPrefix + executor.ID
	if err := r.redisClient.Set(ctx, executorKey, executorJSON, executorExpiration).Err(); err != nil {
		r.logger.Error("Failed to save executor info", "error", err)
		return fmt.Errorf("failed to save executor info: %w", err)
	}

	// Ranks are only unique within a run; the latest registration wins
	rankField := strconv.Itoa(int(executor.Rank))
	if err := r.redisClient.HSet(ctx, executorRankKey, rankField, executor.ID).Err(); err != nil {
		r.logger.Error("Failed to index executor rank", "error", err)
		return fmt.Errorf("failed to index executor rank: %w", err)
	}

	return nil
}

// GetExecutor retrieves executor information from Redis by ID
func (r *ExecutorRepository) GetExecutor(ctx context.Context, executorID string) (*domain.ExecutorInfo, error) {
	executorJSON, err := r.redisClient.Get(ctx, executorKeyPrefix+executorID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to get executor info", "error", err)
		return nil, fmt.Errorf("failed to get executor info: %w", err)
	}

	var executor domain.ExecutorInfo
	if err := json.Unmarshal(executorJSON, &executor); err != nil {
		r.logger.Error("Failed to unmarshal executor info", "error", err)
		return nil, fmt.Errorf("failed to unmarshal executor info: %w", err)
	}

	return &executor, nil
}

// GetAllExecutors retrieves all executor information from Redis
func (r *ExecutorRepository) GetAllExecutors(ctx context.Context) ([]*domain.ExecutorInfo, error) {
	var cursor uint64
	var executorKeys []string
	var executors []*domain.ExecutorInfo
	var err error

	// Use SCAN to iterate over keys with the executor prefix
	for {
		var keys []string
		keys, cursor, err = r.redisClient.Scan(ctx, cursor, executorKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan executor keys: %w", err)
		}
		executorKeys = append(executorKeys, keys...)
		if cursor == 0 {
			break
		}
	}

	if len(executorKeys) == 0 {
		return executors, nil
	}

	executorData, err := r.redisClient.MGet(ctx, executorKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve executor data: %w", err)
	}

	for _, data := range executorData {
		raw, ok := data.(string)
		if !ok {
			continue
		}
		var executor domain.ExecutorInfo
		if err := json.Unmarshal([]byte(raw), &executor); err != nil {
			return nil, fmt.Errorf("failed to unmarshal executor data: %w", err)
		}
		executors = append(executors, &executor)
	}

	return executors, nil
}

// MarkTerminated flags the executor currently holding rank as terminated
func (r *ExecutorRepository) MarkTerminated(ctx context.Context, rank domain.Rank, at time.Time) error {
	executorID, err := r.redisClient.HGet(ctx, executorRankKey, strconv.Itoa(int(rank))).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("%w: executor with rank %d", errs.NotFound, rank)
		}
		return fmt.Errorf("failed to look up executor rank: %w", err)
	}

	executor, err := r.GetExecutor(ctx, executorID)
	if err != nil {
		return err
	}
	if executor == nil {
		return fmt.Errorf("%w: executor %s", errs.NotFound, executorID)
	}

	executor.Status = domain.ExecutorStatusTerminated
	executor.TerminatedAt = &at
	return r.SaveExecutor(ctx, executor)
}
