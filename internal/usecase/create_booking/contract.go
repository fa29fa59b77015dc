package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/emailservice"
	"github.com/m04kA/SMC-DetailingService/internal/service/accounts"
	"github.com/m04kA/SMC-DetailingService/internal/service/pricing"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByDateTime(ctx context.Context, date time.Time, start types.TimeString) (*domain.Slot, error)
	Reserve(ctx context.Context, id int64, today time.Time) (*domain.Slot, error)
}

// UserRepository интерфейс репозитория пользователей и их автомобилей
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error)
	SaveVehicle(ctx context.Context, v *domain.Vehicle) (*domain.Vehicle, error)
}

// LockManager проверка и снятие блокировки слота
type LockManager interface {
	Check(ctx context.Context, key domain.SlotKey, token string) error
	Release(ctx context.Context, key domain.SlotKey) error
}

// PricingService расчет цены
type PricingService interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (*domain.PriceBreakdown, error)
}

// PaymentProvider создание платежного намерения
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amountPence int64, currency string) (string, error)
}

// AccountsService выдача ссылки на установку пароля
type AccountsService interface {
	IssuePasswordSetup(ctx context.Context, userID int64) (*accounts.SetupToken, error)
}

// EmailSender интерфейс отправки писем
type EmailSender interface {
	Send(ctx context.Context, msg emailservice.Message) error
}

// EventPublisher интерфейс публикации изменений
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics доменные счетчики
type Metrics interface {
	BookingCreated()
	SlotConflict(stage string)
	SideEffectFailed(kind string)
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

type nopMetrics struct{}

func (nopMetrics) BookingCreated()         {}
func (nopMetrics) SlotConflict(string)     {}
func (nopMetrics) SideEffectFailed(string) {}
