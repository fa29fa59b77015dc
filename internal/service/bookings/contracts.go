package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/emailservice"
	rewardsModels "github.com/m04kA/SMC-DetailingService/internal/service/rewards/models"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	TransitionStatus(ctx context.Context, id int64, from, to domain.BookingStatus, reason *string, at time.Time) error
	UpdatePayment(ctx context.Context, id int64, status domain.PaymentStatus, intentID *string) error
}

// SlotRepository интерфейс возврата места в слот
type SlotRepository interface {
	Release(ctx context.Context, id int64) (bool, error)
}

// RewardsService интерфейс начисления бонусов
type RewardsService interface {
	AddPoints(ctx context.Context, req *rewardsModels.AddPointsRequest) (*rewardsModels.AddPointsResult, error)
}

// PaymentProvider интерфейс платежного провайдера
type PaymentProvider interface {
	Confirm(ctx context.Context, intentID string) (bool, error)
	Refund(ctx context.Context, intentID string) (bool, error)
}

// EmailSender интерфейс отправки писем
type EmailSender interface {
	Send(ctx context.Context, msg emailservice.Message) error
}

// EventPublisher интерфейс публикации изменений бронирований
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics доменные счетчики
type Metrics interface {
	BookingCancelled()
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

func (nopMetrics) BookingCancelled()       {}
func (nopMetrics) SideEffectFailed(string) {}
