package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	lockRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/lock"
	slotRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// memoryStore хранилище блокировок в памяти с той же семантикой, что и upsert в Postgres
type memoryStore struct {
	mu    sync.Mutex
	locks map[domain.SlotKey]domain.Lock
}

func newMemoryStore() *memoryStore {
	return &memoryStore{locks: make(map[domain.SlotKey]domain.Lock)}
}

func (m *memoryStore) Acquire(_ context.Context, lock *domain.Lock, now time.Time) (*domain.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.locks[lock.SlotKey]; ok && !existing.IsExpired(now) {
		return nil, lockRepo.ErrLockHeld
	}
	l := *lock
	l.CreatedAt = now
	m.locks[lock.SlotKey] = l
	return &l, nil
}

func (m *memoryStore) GetActive(_ context.Context, key domain.SlotKey, now time.Time) (*domain.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[key]
	if !ok || l.IsExpired(now) {
		return nil, lockRepo.ErrLockNotFound
	}
	return &l, nil
}

func (m *memoryStore) Release(_ context.Context, key domain.SlotKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *memoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for k, l := range m.locks {
		if l.IsExpired(now) {
			delete(m.locks, k)
			n++
		}
	}
	return n, nil
}

type fakeSlots struct {
	slot *domain.Slot
}

func (f fakeSlots) GetByDateTime(_ context.Context, date time.Time, start types.TimeString) (*domain.Slot, error) {
	if f.slot == nil || !f.slot.Date.Equal(date) || f.slot.StartTime != start {
		return nil, slotRepo.ErrSlotNotFound
	}
	return f.slot, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const testKey = domain.SlotKey("2025-06-02T10:00")

func openSlot() *domain.Slot {
	return &domain.Slot{
		ID:              1,
		Date:            time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		StartTime:       types.MustTimeString("10:00"),
		EndTime:         types.MustTimeString("11:00"),
		DurationMinutes: 60,
		MaxBookings:     1,
	}
}

func newTestService(store LockStore, slot *domain.Slot) (*Service, *clock) {
	c := &clock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := NewService(store, fakeSlots{slot: slot}, 15*time.Minute, nil, logger.Discard())
	s.timeProvider = c
	return s, c
}

func TestService_ConcurrentAcquireExactlyOneWins(t *testing.T) {
	svc, _ := newTestService(newMemoryStore(), openSlot())

	const sessions = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     int
		refused int
	)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Acquire(context.Background(), testKey)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else if assert.ErrorIs(t, err, ErrSlotUnavailable) {
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, sessions-1, refused)
}

func TestService_RedisBackendMutualExclusion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, _ := newTestService(lockRepo.NewRedisRepository(client, "slot_lock:"), openSlot())

	first, err := svc.Acquire(context.Background(), testKey)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)

	_, err = svc.Acquire(context.Background(), testKey)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestService_ExpiredLockIsAbsent(t *testing.T) {
	svc, c := newTestService(newMemoryStore(), openSlot())
	ctx := context.Background()

	first, err := svc.Acquire(ctx, testKey)
	require.NoError(t, err)

	available, err := svc.IsAvailable(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, available)

	c.Advance(15 * time.Minute)

	available, err = svc.IsAvailable(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, available)

	second, err := svc.Acquire(ctx, testKey)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestService_ReleaseIsIdempotent(t *testing.T) {
	svc, _ := newTestService(newMemoryStore(), openSlot())
	ctx := context.Background()

	_, err := svc.Acquire(ctx, testKey)
	require.NoError(t, err)

	require.NoError(t, svc.Release(ctx, testKey))
	require.NoError(t, svc.Release(ctx, testKey))

	available, err := svc.IsAvailable(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, available)

	assert.ErrorIs(t, svc.Release(ctx, "garbage"), ErrInvalidSlotKey)
}

func TestService_Check(t *testing.T) {
	svc, c := newTestService(newMemoryStore(), openSlot())
	ctx := context.Background()

	lock, err := svc.Acquire(ctx, testKey)
	require.NoError(t, err)

	assert.NoError(t, svc.Check(ctx, testKey, lock.Token))
	assert.ErrorIs(t, svc.Check(ctx, testKey, "someone-else"), ErrSlotUnavailable)
	assert.ErrorIs(t, svc.Check(ctx, testKey, ""), ErrSlotUnavailable)

	c.Advance(time.Hour)
	assert.NoError(t, svc.Check(ctx, testKey, "someone-else"))
}

func TestService_AcquireRejectsUnorderableSlots(t *testing.T) {
	full := openSlot()
	full.CurrentBookings = 1
	svc, _ := newTestService(newMemoryStore(), full)
	_, err := svc.Acquire(context.Background(), testKey)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	blocked := openSlot()
	blocked.IsBlocked = true
	svc, _ = newTestService(newMemoryStore(), blocked)
	_, err = svc.Acquire(context.Background(), testKey)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	svc, _ = newTestService(newMemoryStore(), nil)
	_, err = svc.Acquire(context.Background(), testKey)
	assert.ErrorIs(t, err, ErrSlotNotFound)

	_, err = svc.Acquire(context.Background(), "2025-06-02 10:00")
	assert.ErrorIs(t, err, ErrInvalidSlotKey)
}

func TestService_Sweep(t *testing.T) {
	store := newMemoryStore()
	svc, c := newTestService(store, openSlot())
	ctx := context.Background()

	_, err := svc.Acquire(ctx, testKey)
	require.NoError(t, err)

	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	c.Advance(16 * time.Minute)
	n, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestService_AliasSpellingsShareOneLock(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store, openSlot())
	ctx := context.Background()

	first, err := svc.Acquire(ctx, "2025-06-02T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, testKey, first.SlotKey)

	for _, alias := range []domain.SlotKey{testKey, "2025-06-02T10:00:00", "2025-06-02T 10:00"} {
		_, err := svc.Acquire(ctx, alias)
		assert.ErrorIs(t, err, ErrSlotUnavailable, alias)

		available, err := svc.IsAvailable(ctx, alias)
		require.NoError(t, err)
		assert.False(t, available, alias)
	}

	assert.NoError(t, svc.Check(ctx, "2025-06-02T 10:00", first.Token))
	assert.ErrorIs(t, svc.Check(ctx, "2025-06-02T10:00:00", "someone-else"), ErrSlotUnavailable)

	require.NoError(t, svc.Release(ctx, "2025-06-02T 10:00:00"))
	available, err := svc.IsAvailable(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, available)
	assert.Empty(t, store.locks)
}
