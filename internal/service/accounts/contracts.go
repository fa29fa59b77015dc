package accounts

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetPasswordHash(ctx context.Context, userID int64, hash string) error
	SaveSetupToken(ctx context.Context, t *domain.PasswordSetupToken) error
	GetSetupToken(ctx context.Context, userID int64) (*domain.PasswordSetupToken, error)
	MarkSetupTokenUsed(ctx context.Context, userID int64, at time.Time) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
