package rewards

import (
	"context"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/emailservice"
)

// RewardsRepository интерфейс репозитория бонусных счетов
type RewardsRepository interface {
	EnsureAccount(ctx context.Context, userID int64) (*domain.RewardsAccount, error)
	GetAccount(ctx context.Context, userID int64) (*domain.RewardsAccount, error)
	UpdateAccount(ctx context.Context, a *domain.RewardsAccount) error
	AddTransaction(ctx context.Context, tx *domain.RewardTransaction) (*domain.RewardTransaction, error)
	ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.RewardTransaction, error)
	AddTierNotification(ctx context.Context, n *domain.TierNotification) (bool, error)
}

// UserReader интерфейс чтения пользователя (адрес для уведомления)
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// EmailSender интерфейс отправки писем
type EmailSender interface {
	Send(ctx context.Context, msg emailservice.Message) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчики уровней
type Metrics interface {
	TierUpgraded(tier string)
	SideEffectFailed(kind string)
}

type nopMetrics struct{}

func (nopMetrics) TierUpgraded(string)     {}
func (nopMetrics) SideEffectFailed(string) {}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
