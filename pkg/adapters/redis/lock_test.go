package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat/pkg/adapters/redis"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "conv-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:conv-1"), "Lock key should be set in Redis")
	assert.Equal(t, 5*time.Second, mr.TTL("test:lock:conv-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:conv-1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := first.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = second.Lock(short, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))

	unlock2, err := second.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock2(ctx) }()
	assert.True(t, mr.Exists("test:lock:shared"))
}

func TestRedisLocker_StaleUnlockKeepsNewOwner(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "conv", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, err = locker.Lock(ctx, "conv", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("test:lock:conv"), "an expired holder must not release the new lock")
}
