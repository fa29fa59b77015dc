package schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
	CreateMissing(ctx context.Context, slots []*domain.Slot) (int, error)
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	ListByRange(ctx context.Context, from, to time.Time) ([]*domain.Slot, error)
	Overview(ctx context.Context, from, to time.Time) ([]*domain.DayOverview, error)
	SetBlocked(ctx context.Context, id int64, blocked bool, reason *string) (*domain.Slot, error)
	Delete(ctx context.Context, id int64) error
}

// ScheduleRepository интерфейс репозитория недельного шаблона и исключений
type ScheduleRepository interface {
	GetTemplate(ctx context.Context) (domain.WeeklyTemplate, error)
	UpsertWorkingDay(ctx context.Context, day *domain.WorkingDay) (*domain.WorkingDay, error)
	SetWeekdayWorking(ctx context.Context, weekday time.Weekday, working bool) error
	ListOverrides(ctx context.Context, from, to time.Time) (map[string]*domain.ScheduleOverride, error)
	UpsertOverride(ctx context.Context, o *domain.ScheduleOverride) (*domain.ScheduleOverride, error)
}

// LockReader интерфейс чтения активных блокировок слотов
type LockReader interface {
	ListActive(ctx context.Context, keys []domain.SlotKey, now time.Time) (map[domain.SlotKey]bool, error)
}

// EventPublisher интерфейс публикации изменений слотов
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
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
