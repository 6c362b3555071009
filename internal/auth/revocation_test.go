package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRevocationStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Minute))
	require.NoError(t, s.Revoke(ctx, "", time.Minute))

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = s.IsRevoked(ctx, "jti-2")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = s.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked, "entries expire with the token")
}

func TestRedisRevocationStore_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	s := NewRedisRevocationStore(client)
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "")
	assert.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, s.Revoke(ctx, "", time.Minute))
	assert.NoError(t, s.Revoke(ctx, "jti-1", 0))

	assert.Error(t, s.Revoke(ctx, "jti-1", time.Minute))
	_, err = s.IsRevoked(ctx, "jti-1")
	assert.Error(t, err)
}
