package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, "campushub:lock:"), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()

	lease, err := locker.TryAcquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.True(t, mr.Exists("campushub:lock:reconcile"))

	second, err := locker.TryAcquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second)

	other, err := locker.TryAcquire(ctx, "expire", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, other)

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("campushub:lock:reconcile"))

	again, err := locker.TryAcquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, again)
}

func TestRedisLockerExpiredLeaseCannotReleaseNewOwner(t *testing.T) {
	locker, mr := newRedisLocker(t)
	ctx := context.Background()

	stale, err := locker.TryAcquire(ctx, "expire", time.Second)
	require.NoError(t, err)
	require.NotNil(t, stale)

	mr.FastForward(2 * time.Second)

	fresh, err := locker.TryAcquire(ctx, "expire", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, fresh)

	assert.ErrorIs(t, stale.Release(ctx), ErrNotHeld)
	assert.True(t, mr.Exists("campushub:lock:expire"))
	require.NoError(t, fresh.Release(ctx))
}

func TestLocalLockerConcurrentAcquire(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := locker.TryAcquire(ctx, "reconcile", time.Minute)
			if err == nil && lease != nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

func TestLocalLockerExpiry(t *testing.T) {
	locker := NewLocalLocker()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	locker.clock = func() time.Time { return now }
	ctx := context.Background()

	first, err := locker.TryAcquire(ctx, "expire", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, first)

	now = now.Add(2 * time.Minute)
	second, err := locker.TryAcquire(ctx, "expire", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.ErrorIs(t, first.Release(ctx), ErrNotHeld)
	assert.NoError(t, second.Release(ctx))
}
