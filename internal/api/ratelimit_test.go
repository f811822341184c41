package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, rps float64, burst int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLimiter(client, "test:rl:", rps, burst), mr
}

func TestRedisLimiterTokenBucket(t *testing.T) {
	limiter, _ := newRedisLimiter(t, 1, 2)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := limiter.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, retry, err := limiter.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Second, retry)

	ok, _, err = limiter.Allow(ctx, "other-ip")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(1500 * time.Millisecond)
	ok, _, err = limiter.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiterError(t *testing.T) {
	limiter, mr := newRedisLimiter(t, 1, 1)
	mr.Close()

	_, _, err := limiter.Allow(context.Background(), "ip")
	assert.Error(t, err)
}

func TestLocalLimiter(t *testing.T) {
	limiter := NewLocalLimiter(0.001, 1)
	ctx := context.Background()

	ok, _, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, retry, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	ok, _, _ = limiter.Allow(ctx, "b")
	assert.True(t, ok)

	limiter.idleTTL = -time.Second
	limiter.Cleanup()
	assert.Empty(t, limiter.entries)
}

func TestRateLimitMiddleware(t *testing.T) {
	env := newAPIEnv(t, NewLocalLimiter(0.001, 1))
	body := map[string]string{"email": "jane@example.com", "name": "Jane"}
	path := "/api/v1/slots/" + uuid.NewString() + "/reserve"

	rec := env.do(t, http.MethodPost, path, body, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, path, body, false)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter, mr := newRedisLimiter(t, 0.001, 1)
	mr.Close()
	env := newAPIEnv(t, limiter)
	body := map[string]string{"email": "jane@example.com", "name": "Jane"}
	path := "/api/v1/slots/" + uuid.NewString() + "/reserve"

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, path, body, false)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}
