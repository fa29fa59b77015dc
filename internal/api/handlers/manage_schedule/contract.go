package manage_schedule

import (
	"context"

	"github.com/m04kA/SMC-DetailingService/internal/service/schedule/models"
)

type ScheduleService interface {
	CreateSlot(ctx context.Context, req *models.CreateSlotRequest) (*models.SlotResponse, error)
	CreateWeeklySlots(ctx context.Context, req *models.CreateWeeklySlotsRequest) (*models.CreateWeeklySlotsResponse, error)
	ToggleWorkingDay(ctx context.Context, req *models.ToggleWorkingDayRequest) (*models.ToggleWorkingDayResponse, error)
	UpsertTemplate(ctx context.Context, req *models.UpdateTemplateRequest) (*models.WorkingDayResponse, error)
	BlockSlot(ctx context.Context, slotID int64, reason *string) (*models.SlotResponse, error)
	UnblockSlot(ctx context.Context, slotID int64) (*models.SlotResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
