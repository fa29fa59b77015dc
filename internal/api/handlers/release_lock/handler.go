package release_lock

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/locks"
)

const msgInvalidSlotKey = "некорректный ключ слота, ожидается YYYY-MM-DDTHH:MM"

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

// Handle DELETE /api/v1/locks/{slotKey}
// Повторное снятие не ошибка, ответ всегда 204
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	key := domain.SlotKey(mux.Vars(r)["slotKey"])

	if err := h.service.Release(r.Context(), key); err != nil {
		if errors.Is(err, locks.ErrInvalidSlotKey) {
			h.logger.Warn("DELETE /locks/%s - Invalid slot key", key)
			handlers.RespondBadRequest(w, msgInvalidSlotKey)
			return
		}
		h.logger.Error("DELETE /locks/%s - Failed to release: %v", key, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("DELETE /locks/%s - Released", key)
	w.WriteHeader(http.StatusNoContent)
}
