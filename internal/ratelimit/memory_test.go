package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryLimiter(start time.Time) (*MemoryLimiter, *time.Time) {
	now := start
	l := NewMemoryLimiter()
	l.now = func() time.Time { return now }
	return l, &now
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	l, now := newTestMemoryLimiter(time.Unix(1_700_000_000, 0))
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
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 10*time.Second, d.RetryAfter)

	*now = now.Add(4 * time.Second)
	d, err = l.Allow(ctx, "1.2.3.4|/login", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 6*time.Second, d.RetryAfter)

	*now = now.Add(6 * time.Second)
	d, err = l.Allow(ctx, "1.2.3.4|/login", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 4, d.Remaining)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestMemoryLimiter(time.Unix(1_700_000_000, 0))
	policy := Policy{Limit: 1, Window: time.Minute}

	d, err := l.Allow(ctx, "ip-a|/login", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "ip-a|/registration", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "ip-b|/login", policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "ip-a|/login", policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestMemoryLimiter_SweepsExpiredWindows(t *testing.T) {
	ctx := context.Background()
	l, now := newTestMemoryLimiter(time.Unix(1_700_000_000, 0))
	policy := Policy{Limit: 1, Window: time.Second}

	_, err := l.Allow(ctx, "a", policy)
	require.NoError(t, err)
	_, err = l.Allow(ctx, "b", policy)
	require.NoError(t, err)

	*now = now.Add(2 * time.Second)
	_, err = l.Allow(ctx, "c", policy)
	require.NoError(t, err)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.windows, 1)
}

func TestMemoryLimiter_InvalidPolicy(t *testing.T) {
	l := NewMemoryLimiter()
	_, err := l.Allow(context.Background(), "k", Policy{})
	require.Error(t, err)
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter()
	policy := Policy{Limit: 10, Window: time.Minute}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(ctx, "k", policy)
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}
