package executorport

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nqueens.net/internal/adapter/logging"
	"gitlab.com/nqueens.net/internal/domain"
)

// Runs against a live server only: REDIS_TEST_ADDR=localhost:6379 go test ./...
func newTestRepository(t *testing.T) *ExecutorRepository {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return NewExecutorRepository(client, logging.NewNopLogger())
}

func TestSaveGetMarkTerminated(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	info := &domain.ExecutorInfo{
		ID:           uuid.NewString(),
		Rank:         3,
		Status:       domain.ExecutorStatusRegistered,
		RegisteredAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveExecutor(ctx, info))

	got, err := repo.GetExecutor(ctx, info.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.Rank(3), got.Rank)

	require.NoError(t, repo.MarkTerminated(ctx, 3, time.Now()))
	got, err = repo.GetExecutor(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutorStatusTerminated, got.Status)
	assert.NotNil(t, got.TerminatedAt)

	all, err := repo.GetAllExecutors(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, all)
}

func TestGetExecutorMissing(t *testing.T) {
	repo := newTestRepository(t)
	got, err := repo.GetExecutor(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)
}
