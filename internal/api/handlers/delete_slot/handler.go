package delete_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/service/schedule"
)

const (
	msgInvalidSlotID = "некорректный slot_id"
	msgSlotNotFound  = "слот не найден"
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

// Handle DELETE /api/v1/schedule?slot_id=N
// Слот с активными бронированиями блокируется вместо удаления
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	slotID, err := handlers.QueryInt64(r, "slot_id")
	if err != nil || slotID == nil || *slotID <= 0 {
		h.logger.Warn("DELETE /schedule - Invalid slot_id: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	result, err := h.service.DeleteSlot(r.Context(), *slotID)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrSlotNotFound):
			h.logger.Warn("DELETE /schedule - Slot not found: slot_id=%d", *slotID)
			handlers.RespondNotFound(w, msgSlotNotFound)
		default:
			h.logger.Error("DELETE /schedule - Failed to delete slot %d: %v", *slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /schedule - Slot %d: deleted=%t, soft_blocked=%t", result.SlotID, result.Deleted, result.SoftBlocked)
	handlers.RespondJSON(w, http.StatusOK, result)
}
