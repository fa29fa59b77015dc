package get_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/service/schedule"
)

const (
	msgInvalidStartDate = "некорректная дата start, ожидается YYYY-MM-DD"
	msgInvalidEndDate   = "некорректная дата end, ожидается YYYY-MM-DD"
	msgInvalidRange     = "некорректный диапазон дат"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/schedule?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	start, err := handlers.QueryDate(r, "start", true)
	if err != nil {
		h.logger.Warn("GET /schedule - Invalid start: %v", err)
		handlers.RespondBadRequest(w, msgInvalidStartDate)
		return
	}

	// end по умолчанию равен start
	end, err := handlers.QueryDate(r, "end", false)
	if err != nil {
		h.logger.Warn("GET /schedule - Invalid end: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEndDate)
		return
	}
	if end == nil {
		end = start
	}

	result, err := h.service.GetSchedule(r.Context(), *start, *end)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrInvalidDateRange), errors.Is(err, schedule.ErrInvalidInput):
			h.logger.Warn("GET /schedule - Invalid range: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRange)
		default:
			h.logger.Error("GET /schedule - Failed to get schedule: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /schedule - Schedule retrieved: %s..%s, days=%d", result.StartDate, result.EndDate, len(result.Days))
	handlers.RespondJSON(w, http.StatusOK, result)
}
