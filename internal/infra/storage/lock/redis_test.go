package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

func newRedisRepo(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client, "slot_lock:"), mr
}

func TestRedisRepository_MutualExclusion(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()
	now := time.Now()
	key := domain.SlotKey("2025-06-02T10:00")

	first, err := repo.Acquire(ctx, &domain.Lock{SlotKey: key, Token: "a", ExpiresAt: now.Add(15 * time.Minute)}, now)
	require.NoError(t, err)
	assert.Equal(t, "a", first.Token)

	_, err = repo.Acquire(ctx, &domain.Lock{SlotKey: key, Token: "b", ExpiresAt: now.Add(15 * time.Minute)}, now)
	assert.ErrorIs(t, err, ErrLockHeld)

	active, err := repo.GetActive(ctx, key, now)
	require.NoError(t, err)
	assert.Equal(t, "a", active.Token)
}

func TestRedisRepository_ExpiryAndRelease(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()
	now := time.Now()
	key := domain.SlotKey("2025-06-02T10:00")

	_, err := repo.Acquire(ctx, &domain.Lock{SlotKey: key, Token: "a", ExpiresAt: now.Add(time.Minute)}, now)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = repo.GetActive(ctx, key, now)
	assert.ErrorIs(t, err, ErrLockNotFound)

	_, err = repo.Acquire(ctx, &domain.Lock{SlotKey: key, Token: "b", ExpiresAt: now.Add(time.Minute)}, now)
	require.NoError(t, err)

	require.NoError(t, repo.Release(ctx, key))
	require.NoError(t, repo.Release(ctx, key))

	locked, err := repo.ListActive(ctx, []domain.SlotKey{key}, now)
	require.NoError(t, err)
	assert.Empty(t, locked)
}
