package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

// RedisRepository хранилище блокировок в Redis: ключ prefix+slot_key, значение токен, TTL = срок блокировки
// Истекшие ключи удаляет сам Redis, поэтому DeleteExpired ничего не делает
type RedisRepository struct {
	client redis.Cmdable
	prefix string
}

// NewRedisRepository создает репозиторий блокировок поверх Redis
func NewRedisRepository(client redis.Cmdable, prefix string) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(k domain.SlotKey) string {
	return r.prefix + string(k)
}

// Acquire SET NX PX: первый записавший выигрывает
func (r *RedisRepository) Acquire(ctx context.Context, lock *domain.Lock, now time.Time) (*domain.Lock, error) {
	ttl := lock.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: Acquire - non-positive ttl %s", ErrRedis, ttl)
	}

	ok, err := r.client.SetNX(ctx, r.key(lock.SlotKey), lock.Token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: Acquire - set nx: %v", ErrRedis, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	acquired := *lock
	acquired.CreatedAt = now
	return &acquired, nil
}

// GetActive возвращает блокировку, если ключ еще жив
func (r *RedisRepository) GetActive(ctx context.Context, key domain.SlotKey, now time.Time) (*domain.Lock, error) {
	pipe := r.client.Pipeline()
	getCmd := pipe.Get(ctx, r.key(key))
	ttlCmd := pipe.PTTL(ctx, r.key(key))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: GetActive - pipeline: %v", ErrRedis, err)
	}

	token, err := getCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrLockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetActive - get: %v", ErrRedis, err)
	}

	ttl, err := ttlCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActive - pttl: %v", ErrRedis, err)
	}
	if ttl <= 0 {
		return nil, ErrLockNotFound
	}

	return &domain.Lock{SlotKey: key, Token: token, ExpiresAt: now.Add(ttl)}, nil
}

// ListActive возвращает ключи, по которым есть живые блокировки
func (r *RedisRepository) ListActive(ctx context.Context, keys []domain.SlotKey, _ time.Time) (map[domain.SlotKey]bool, error) {
	locked := make(map[domain.SlotKey]bool)
	if len(keys) == 0 {
		return locked, nil
	}

	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = r.key(k)
	}

	values, err := r.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - mget: %v", ErrRedis, err)
	}

	for i, v := range values {
		if v != nil {
			locked[keys[i]] = true
		}
	}

	return locked, nil
}

// Release удаляет ключ блокировки безусловно
func (r *RedisRepository) Release(ctx context.Context, key domain.SlotKey) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: Release - del: %v", ErrRedis, err)
	}
	return nil
}

// DeleteExpired ничего не удаляет: истечение ключей обслуживает Redis
func (r *RedisRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
