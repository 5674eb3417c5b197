package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiterForTest(t *testing.T) (*miniredis.Miniredis, *RedisLimiter) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return m, NewRedisLimiter(client, "rl_test")
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	m, l := newRedisLimiterForTest(t)
	ctx := context.Background()
	policy := Policy{Limit: 5, Window: 10 * time.Second}

	for i := 1; i <= 5; i++ {
		d, err := l.Allow(ctx, "1.2.3.4|/login", policy)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "call %d", i)
		assert.Equal(t, 5-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "1.2.3.4|/login", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Positive(t, d.RetryAfter)
	assert.LessOrEqual(t, d.RetryAfter, 10*time.Second)

	m.FastForward(10 * time.Second)

	d, err = l.Allow(ctx, "1.2.3.4|/login", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_KeyPrefix(t *testing.T) {
	m, l := newRedisLimiterForTest(t)

	_, err := l.Allow(context.Background(), "k", Policy{Limit: 1, Window: time.Minute})
	require.NoError(t, err)

	assert.True(t, m.Exists("rl_test:k"))
	assert.Positive(t, m.TTL("rl_test:k"))
}

func TestRedisLimiter_Errors(t *testing.T) {
	l := NewRedisLimiter(nil, "")
	_, err := l.Allow(context.Background(), "k", Policy{Limit: 1, Window: time.Second})
	require.Error(t, err)

	_, l = newRedisLimiterForTest(t)
	_, err = l.Allow(context.Background(), "k", Policy{})
	require.Error(t, err)

	badClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 20 * time.Millisecond})
	t.Cleanup(func() { _ = badClient.Close() })
	l = NewRedisLimiter(badClient, "")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Allow(ctx, "k", Policy{Limit: 1, Window: time.Second})
	require.Error(t, err)
}
