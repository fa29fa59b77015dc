package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	lockRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/lock"
	slotRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/slot"
)

// DefaultTTL срок жизни блокировки по умолчанию
const DefaultTTL = 15 * time.Minute

// Результаты попытки блокировки для метрик
const (
	resultAcquired = "acquired"
	resultHeld     = "held"
	resultRejected = "rejected"
	resultError    = "error"
)

// Service менеджер блокировок слотов
// Блокировка рекомендательная: места в слоте она не занимает, при бронировании проверяется повторно
type Service struct {
	store        LockStore
	slots        SlotReader
	ttl          time.Duration
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр менеджера блокировок
func NewService(store LockStore, slots SlotReader, ttl time.Duration, metrics Metrics, logger Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:        store,
		slots:        slots,
		ttl:          ttl,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Acquire блокирует слот на время оформления
// Если слот уже заблокирован активной блокировкой, возвращает ErrSlotUnavailable
func (s *Service) Acquire(ctx context.Context, key domain.SlotKey) (*domain.Lock, error) {
	s.logger.Info("Acquire: slot=%s", key)

	// 1. Слот должен существовать и быть доступен для заказа
	slot, key, err := s.getSlot(ctx, "Acquire", key)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	if !slot.IsOrderable(now) {
		s.logger.Warn("Acquire: slot=%s is not orderable (blocked=%t, %d/%d)",
			key, slot.IsBlocked, slot.CurrentBookings, slot.MaxBookings)
		s.recordAcquire(resultRejected)
		return nil, ErrSlotUnavailable
	}

	// 2. Первый записавший выигрывает, истекшая блокировка перехватывается
	lock, err := s.store.Acquire(ctx, &domain.Lock{
		SlotKey:   key,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.ttl),
	}, now)
	if err != nil {
		if errors.Is(err, lockRepo.ErrLockHeld) {
			s.logger.Warn("Acquire: slot=%s is already locked", key)
			s.recordAcquire(resultHeld)
			if s.metrics != nil {
				s.metrics.SlotConflict("lock")
			}
			return nil, ErrSlotUnavailable
		}
		s.logger.Error("Acquire: store error for slot=%s: %v", key, err)
		s.recordAcquire(resultError)
		return nil, fmt.Errorf("%w: Acquire - store: %v", ErrInternal, err)
	}

	s.recordAcquire(resultAcquired)
	s.logger.Info("Acquire: slot=%s locked until %s", key, lock.ExpiresAt.Format(time.RFC3339))
	return lock, nil
}

// Release снимает блокировку безусловно, повторный вызов не является ошибкой
func (s *Service) Release(ctx context.Context, key domain.SlotKey) error {
	key, err := s.normalize("Release", key)
	if err != nil {
		return err
	}

	if err := s.store.Release(ctx, key); err != nil {
		s.logger.Error("Release: store error for slot=%s: %v", key, err)
		return fmt.Errorf("%w: Release - store: %v", ErrInternal, err)
	}

	s.logger.Info("Release: slot=%s released", key)
	return nil
}

// IsAvailable true, если в слоте есть место и нет активной блокировки
func (s *Service) IsAvailable(ctx context.Context, key domain.SlotKey) (bool, error) {
	slot, key, err := s.getSlot(ctx, "IsAvailable", key)
	if err != nil {
		return false, err
	}

	now := s.timeProvider.Now()
	if !slot.IsOrderable(now) {
		return false, nil
	}

	_, err = s.store.GetActive(ctx, key, now)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, lockRepo.ErrLockNotFound):
		return true, nil
	default:
		s.logger.Error("IsAvailable: store error for slot=%s: %v", key, err)
		return false, fmt.Errorf("%w: IsAvailable - store: %v", ErrInternal, err)
	}
}

// Check перепроверяет блокировку перед фиксацией бронирования
// Ошибка только если слот держит активная блокировка с другим токеном.
// Истекшая или отсутствующая блокировка не мешает: места проверяются атомарно при резерве
func (s *Service) Check(ctx context.Context, key domain.SlotKey, token string) error {
	key, err := s.normalize("Check", key)
	if err != nil {
		return err
	}

	lock, err := s.store.GetActive(ctx, key, s.timeProvider.Now())
	if err != nil {
		if errors.Is(err, lockRepo.ErrLockNotFound) {
			return nil
		}
		s.logger.Error("Check: store error for slot=%s: %v", key, err)
		return fmt.Errorf("%w: Check - store: %v", ErrInternal, err)
	}

	if lock.Token != token {
		s.logger.Warn("Check: slot=%s is locked by another checkout", key)
		if s.metrics != nil {
			s.metrics.SlotConflict("lock_check")
		}
		return ErrSlotUnavailable
	}
	return nil
}

// Sweep удаляет истекшие блокировки
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteExpired(ctx, s.timeProvider.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: Sweep - store: %v", ErrInternal, err)
	}
	return deleted, nil
}

// TTL срок жизни блокировки
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// normalize приводит ключ к каноническому виду, иначе разные написания одного слота
// дали бы разные строки блокировок
func (s *Service) normalize(op string, key domain.SlotKey) (domain.SlotKey, error) {
	canonical, err := key.Normalize()
	if err != nil {
		s.logger.Warn("%s: invalid slot key %q", op, key)
		return "", ErrInvalidSlotKey
	}
	return canonical, nil
}

// getSlot возвращает слот и канонический ключ
func (s *Service) getSlot(ctx context.Context, op string, key domain.SlotKey) (*domain.Slot, domain.SlotKey, error) {
	key, err := s.normalize(op, key)
	if err != nil {
		return nil, "", err
	}
	date, start, _ := key.Parse()

	slot, err := s.slots.GetByDateTime(ctx, date, start)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("%s: slot=%s not found", op, key)
			return nil, "", ErrSlotNotFound
		}
		s.logger.Error("%s: slot repository error: %v", op, err)
		return nil, "", fmt.Errorf("%w: %s - get slot: %v", ErrInternal, op, err)
	}
	return slot, key, nil
}

func (s *Service) recordAcquire(result string) {
	if s.metrics != nil {
		s.metrics.LockAcquired(result)
	}
}
