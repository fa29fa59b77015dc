package slot_availability

import (
	"context"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

type LockService interface {
	IsAvailable(ctx context.Context, key domain.SlotKey) (bool, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
