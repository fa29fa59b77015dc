package get_schedule_overview

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/service/schedule"
)

const (
	msgInvalidDates = "укажите start и end в формате YYYY-MM-DD"
	msgInvalidRange = "некорректный диапазон дат"
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

// Handle GET /api/v1/schedule/overview?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	start, err := handlers.QueryDate(r, "start", true)
	if err != nil {
		h.logger.Warn("GET /schedule/overview - Invalid start: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDates)
		return
	}
	end, err := handlers.QueryDate(r, "end", true)
	if err != nil {
		h.logger.Warn("GET /schedule/overview - Invalid end: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDates)
		return
	}

	result, err := h.service.GetOverview(r.Context(), *start, *end)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidDateRange) || errors.Is(err, schedule.ErrInvalidInput) {
			h.logger.Warn("GET /schedule/overview - Invalid range: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRange)
			return
		}
		h.logger.Error("GET /schedule/overview - Failed to get overview: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
