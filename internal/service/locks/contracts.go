package locks

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// LockStore хранилище блокировок (Postgres или Redis)
type LockStore interface {
	Acquire(ctx context.Context, lock *domain.Lock, now time.Time) (*domain.Lock, error)
	GetActive(ctx context.Context, key domain.SlotKey, now time.Time) (*domain.Lock, error)
	Release(ctx context.Context, key domain.SlotKey) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SlotReader интерфейс чтения слота по дате и времени
type SlotReader interface {
	GetByDateTime(ctx context.Context, date time.Time, start types.TimeString) (*domain.Slot, error)
}

// Metrics счетчики попыток блокировки
type Metrics interface {
	LockAcquired(result string)
	SlotConflict(stage string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
