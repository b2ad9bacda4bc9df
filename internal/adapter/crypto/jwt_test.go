package crypto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nqueens.net/internal/config"
)

func newService(secret string, ttl time.Duration) *JWTServiceImpl {
	return NewJWTService(&config.JwtConfig{Secret: secret, TokenTTL: ttl})
}

func TestGenerateAndVerify(t *testing.T) {
	ctx := context.Background()
	svc := newService("s3cret", time.Minute)

	token, err := svc.GenerateToken(ctx, "executor-1")
	require.NoError(t, err)

	ok, err := svc.VerifyToken(ctx, token, "executor-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejects(t *testing.T) {
	ctx := context.Background()
	svc := newService("s3cret", time.Minute)
	token, err := svc.GenerateToken(ctx, "executor-1")
	require.NoError(t, err)

	t.Run("other executor", func(t *testing.T) {
		ok, err := svc.VerifyToken(ctx, token, "executor-2")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.False(t, ok)
	})

	t.Run("other secret", func(t *testing.T) {
		ok, err := newService("different", time.Minute).VerifyToken(ctx, token, "executor-1")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.False(t, ok)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := newService("s3cret", -time.Minute).GenerateToken(ctx, "executor-1")
		require.NoError(t, err)
		ok, err := svc.VerifyToken(ctx, expired, "executor-1")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.False(t, ok)
	})

	t.Run("garbage", func(t *testing.T) {
		ok, err := svc.VerifyToken(ctx, "not.a.token", "executor-1")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
