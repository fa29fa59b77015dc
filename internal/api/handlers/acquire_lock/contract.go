package acquire_lock

import (
	"context"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

type LockService interface {
	Acquire(ctx context.Context, key domain.SlotKey) (*domain.Lock, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
