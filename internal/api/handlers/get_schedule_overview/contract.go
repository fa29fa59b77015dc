package get_schedule_overview

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/service/schedule/models"
)

type ScheduleService interface {
	GetOverview(ctx context.Context, from, to time.Time) (*models.OverviewResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
