package ratelimiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authengine/pkg/ratelimiter"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testConfig = ratelimiter.Config{
	Capacity:       3,
	RefillRate:     1,
	RefillInterval: time.Second,
}

func stores(t *testing.T, clock *fakeClock) map[string]ratelimiter.Store {
	t.Helper()

	mem := ratelimiter.NewMemoryStore(ratelimiter.WithClock(clock.Now), ratelimiter.WithCleanupInterval(0))
	t.Cleanup(mem.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]ratelimiter.Store{
		"memory": mem,
		"redis":  ratelimiter.NewRedisStore(client, ratelimiter.WithRedisClock(clock.Now)),
	}
}

func TestNewBucketValidatesConfig(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	defer store.Close()

	tests := []struct {
		name string
		cfg  ratelimiter.Config
	}{
		{"zero capacity", ratelimiter.Config{RefillRate: 1, RefillInterval: time.Second}},
		{"zero refill rate", ratelimiter.Config{Capacity: 1, RefillInterval: time.Second}},
		{"zero interval", ratelimiter.Config{Capacity: 1, RefillRate: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ratelimiter.NewBucket(store, tt.cfg)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
		})
	}

	_, err := ratelimiter.NewBucket(nil, testConfig)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
}

func TestBucket(t *testing.T) {
	t.Parallel()

	clock := newClock()
	for name, store := range stores(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			limiter, err := ratelimiter.NewBucket(store, testConfig)
			require.NoError(t, err)

			start := clock.Now()
			for want := 2; want >= 0; want-- {
				res, err := limiter.Allow(ctx, "login:10.0.0.1")
				require.NoError(t, err)
				assert.True(t, res.Allowed())
				assert.Equal(t, want, res.Remaining)
				assert.Equal(t, 3, res.Limit)
				assert.True(t, res.ResetAt.Equal(start.Add(time.Second)), "reset at %v", res.ResetAt)
			}

			// Denied requests do not drain the bucket further.
			for range 2 {
				res, err := limiter.Allow(ctx, "login:10.0.0.1")
				require.NoError(t, err)
				assert.False(t, res.Allowed())
				assert.Equal(t, -1, res.Remaining)
				assert.Equal(t, time.Second, res.RetryAfter(start))
			}

			other, err := limiter.Allow(ctx, "login:10.0.0.2")
			require.NoError(t, err)
			assert.Equal(t, 2, other.Remaining)

			_, err = limiter.AllowN(ctx, "login:10.0.0.1", 0)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
		})
	}
}

func TestBucketRefill(t *testing.T) {
	t.Parallel()

	clock := newClock()
	for name, store := range stores(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			limiter, err := ratelimiter.NewBucket(store, testConfig)
			require.NoError(t, err)

			key := "refill:" + name
			res, err := limiter.AllowN(ctx, key, 3)
			require.NoError(t, err)
			assert.Equal(t, 0, res.Remaining)

			clock.Advance(time.Second)
			res, err = limiter.Allow(ctx, key)
			require.NoError(t, err)
			assert.True(t, res.Allowed())
			assert.Equal(t, 0, res.Remaining)

			// A long pause refills up to capacity and no further.
			clock.Advance(time.Hour)
			res, err = limiter.Status(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, 3, res.Remaining)

			require.NoError(t, limiter.Reset(ctx, key))
			res, err = limiter.Allow(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, 2, res.Remaining)
		})
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	limiter, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(client), testConfig)
	require.NoError(t, err)

	_, err = limiter.Allow(context.Background(), "k")
	assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
}

func TestNewRedisStorePanicsOnNilClient(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { ratelimiter.NewRedisStore(nil) })
}
