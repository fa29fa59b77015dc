package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DetailingService/pkg/psqlbuilder"
)

// Repository хранилище блокировок слотов в Postgres (таблица slot_locks)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория блокировок
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Acquire создает блокировку или перехватывает истекшую одним запросом
// Если по ключу есть активная блокировка, ON CONFLICT ... WHERE не обновит строку,
// RETURNING вернет пустой результат и метод вернет ErrLockHeld
func (r *Repository) Acquire(ctx context.Context, lock *domain.Lock, now time.Time) (*domain.Lock, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("slot_locks").
		Columns("slot_key", "token", "expires_at", "created_at").
		Values(lock.SlotKey, lock.Token, lock.ExpiresAt, now).
		Suffix(`ON CONFLICT (slot_key) DO UPDATE SET
			token = EXCLUDED.token,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at
			WHERE slot_locks.expires_at <= ?
			RETURNING slot_key, token, expires_at, created_at`, now).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Acquire - build insert query: %v", ErrBuildQuery, err)
	}

	var acquired domain.Lock
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&acquired.SlotKey,
		&acquired.Token,
		&acquired.ExpiresAt,
		&acquired.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Acquire - execute insert: %v", ErrExecQuery, err)
	}

	return &acquired, nil
}

// GetActive возвращает неистекшую блокировку слота
func (r *Repository) GetActive(ctx context.Context, key domain.SlotKey, now time.Time) (*domain.Lock, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("slot_key", "token", "expires_at", "created_at").
		From("slot_locks").
		Where(squirrel.Eq{"slot_key": key}).
		Where(squirrel.Gt{"expires_at": now}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActive - build select query: %v", ErrBuildQuery, err)
	}

	var l domain.Lock
	err = executor.QueryRowContext(ctx, query, args...).Scan(&l.SlotKey, &l.Token, &l.ExpiresAt, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetActive - scan lock: %v", ErrExecQuery, err)
	}

	return &l, nil
}

// ListActive возвращает ключи активных блокировок из набора
func (r *Repository) ListActive(ctx context.Context, keys []domain.SlotKey, now time.Time) (map[domain.SlotKey]bool, error) {
	locked := make(map[domain.SlotKey]bool)
	if len(keys) == 0 {
		return locked, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = string(k)
	}

	query, args, err := psqlbuilder.Select("slot_key").
		From("slot_locks").
		Where(squirrel.Eq{"slot_key": raw}).
		Where(squirrel.Gt{"expires_at": now}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: ListActive - scan key: %v", ErrExecQuery, err)
		}
		locked[domain.SlotKey(key)] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActive - rows error: %v", ErrExecQuery, err)
	}

	return locked, nil
}

// Release удаляет блокировку слота безусловно
// Повторный вызов не является ошибкой
func (r *Repository) Release(ctx context.Context, key domain.SlotKey) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slot_locks").
		Where(squirrel.Eq{"slot_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Release - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Release - execute delete: %v", ErrExecQuery, err)
	}

	return nil
}

// DeleteExpired удаляет истекшие блокировки и возвращает их число
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slot_locks").
		Where(squirrel.LtOrEq{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - execute delete: %v", ErrExecQuery, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - get rows affected: %v", ErrExecQuery, err)
	}

	return deleted, nil
}
