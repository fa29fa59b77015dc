package delete_slot

import (
	"context"

	"github.com/m04kA/SMC-DetailingService/internal/service/schedule/models"
)

type ScheduleService interface {
	DeleteSlot(ctx context.Context, slotID int64) (*models.DeleteSlotResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
