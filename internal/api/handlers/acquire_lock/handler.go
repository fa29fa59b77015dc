package acquire_lock

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/locks"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidSlotKey     = "некорректный slot_key, ожидается YYYY-MM-DDTHH:MM"
	msgSlotNotFound       = "слот не найден"
	msgSlotUnavailable    = "слот недоступен, выберите другое время"
)

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

// Handle POST /api/v1/locks
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req AcquireLockRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /locks - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	lock, err := h.service.Acquire(r.Context(), domain.SlotKey(req.SlotKey))
	if err != nil {
		switch {
		case errors.Is(err, locks.ErrInvalidSlotKey):
			h.logger.Warn("POST /locks - Invalid slot key %q", req.SlotKey)
			handlers.RespondBadRequest(w, msgInvalidSlotKey)
		case errors.Is(err, locks.ErrSlotNotFound):
			h.logger.Warn("POST /locks - Slot not found: %s", req.SlotKey)
			handlers.RespondNotFound(w, msgSlotNotFound)
		case errors.Is(err, locks.ErrSlotUnavailable):
			h.logger.Info("POST /locks - Slot unavailable: %s", req.SlotKey)
			handlers.RespondErrorWithCode(w, http.StatusConflict, handlers.CodeSlotUnavailable, msgSlotUnavailable)
		default:
			h.logger.Error("POST /locks - Failed to acquire %s: %v", req.SlotKey, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /locks - Lock acquired: slot=%s, expires_at=%s", lock.SlotKey, lock.ExpiresAt.Format("15:04:05"))
	handlers.RespondJSON(w, http.StatusCreated, fromDomainLock(lock))
}
