package slot_availability

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/locks"
)

const (
	msgInvalidSlotKey = "некорректный ключ слота, ожидается YYYY-MM-DDTHH:MM"
	msgSlotNotFound   = "слот не найден"
)

type AvailabilityResponse struct {
	SlotKey   string `json:"slot_key"`
	Available bool   `json:"available"`
}

type Handler struct {
	service LockService
	logger  Logger
}

func NewHandler(service LockService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/locks/{slotKey}/availability
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	key := domain.SlotKey(mux.Vars(r)["slotKey"])

	available, err := h.service.IsAvailable(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, locks.ErrInvalidSlotKey):
			h.logger.Warn("GET /locks/%s/availability - Invalid slot key", key)
			handlers.RespondBadRequest(w, msgInvalidSlotKey)
		case errors.Is(err, locks.ErrSlotNotFound):
			h.logger.Warn("GET /locks/%s/availability - Slot not found", key)
			handlers.RespondNotFound(w, msgSlotNotFound)
		default:
			h.logger.Error("GET /locks/%s/availability - Failed: %v", key, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, &AvailabilityResponse{SlotKey: key.String(), Available: available})
}
