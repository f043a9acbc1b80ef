package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisAdapter "github.com/kneez/intake/internal/adapters/redis"
)

func newTestLocker(t *testing.T) (*redisAdapter.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redisAdapter.NewLocker(client, "test:"), mr
}

func TestLockerAcquireRelease(t *testing.T) {
	ctx := context.Background()
	locker, mr := newTestLocker(t)

	unlock, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:session-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:session-1"))
}

func TestLockerBlocksUntilReleased(t *testing.T) {
	ctx := context.Background()
	locker, _ := newTestLocker(t)

	unlock, err := locker.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)

	// A second acquisition must time out while the lock is held.
	shortCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(shortCtx, "k", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLockerExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	ctx := context.Background()
	locker, mr := newTestLocker(t)

	unlock, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)

	// The lock expires and another holder takes it.
	mr.FastForward(2 * time.Second)
	unlock2, err := locker.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)

	// The stale unlock must not remove the new holder's lock.
	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("test:lock:k"))

	require.NoError(t, unlock2(ctx))
	assert.False(t, mr.Exists("test:lock:k"))
}

func TestLockerDistinctKeysDoNotContend(t *testing.T) {
	ctx := context.Background()
	locker, _ := newTestLocker(t)

	unlockA, err := locker.Lock(ctx, "a", time.Minute)
	require.NoError(t, err)
	unlockB, err := locker.Lock(ctx, "b", time.Minute)
	require.NoError(t, err)

	require.NoError(t, unlockA(ctx))
	require.NoError(t, unlockB(ctx))
}
