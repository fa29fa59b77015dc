package get_user_rewards

import (
	"net/http"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/api/middleware"
)

const (
	msgInvalidUserID = "некорректный ID пользователя"
	msgForbidden     = "доступ запрещен"
)

type Handler struct {
	service RewardsService
	logger  Logger
}

func NewHandler(service RewardsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/users/{userId}/rewards
// Баланс, уровень и история начислений. Счета нет - отдается нулевой bronze
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, err := handlers.PathInt64(r, "userId")
	if err != nil {
		h.logger.Warn("GET /users/{id}/rewards - Invalid user ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidUserID)
		return
	}

	actor := middleware.GetActor(r.Context())
	if !actor.CanAccessUser(userID) {
		h.logger.Warn("GET /users/{id}/rewards - Access denied: user_id=%d, actor=%d", userID, actor.UserID)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	account, err := h.service.GetAccount(r.Context(), userID)
	if err != nil {
		h.logger.Error("GET /users/{id}/rewards - Failed to get account: user_id=%d, error=%v", userID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /users/{id}/rewards - Account retrieved: user_id=%d, tier=%s", userID, account.Tier)
	handlers.RespondJSON(w, http.StatusOK, account)
}
