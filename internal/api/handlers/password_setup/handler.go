package password_setup

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/service/accounts"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidToken       = "ссылка недействительна или устарела"
	msgPasswordAlreadySet = "пароль уже установлен"
)

// PasswordSetupRequest HTTP request model
type PasswordSetupRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

type Handler struct {
	service AccountsService
	logger  Logger
}

func NewHandler(service AccountsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/accounts/password-setup
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req PasswordSetupRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /accounts/password-setup - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	err := h.service.CompletePasswordSetup(r.Context(), req.Email, req.Token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrInvalidInput):
			h.logger.Warn("POST /accounts/password-setup - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())
		case errors.Is(err, accounts.ErrInvalidToken):
			h.logger.Warn("POST /accounts/password-setup - Invalid token")
			handlers.RespondBadRequest(w, msgInvalidToken)
		case errors.Is(err, accounts.ErrPasswordAlreadySet):
			h.logger.Warn("POST /accounts/password-setup - Password already set")
			handlers.RespondConflict(w, msgPasswordAlreadySet)
		default:
			h.logger.Error("POST /accounts/password-setup - Failed: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /accounts/password-setup - Password set")
	w.WriteHeader(http.StatusNoContent)
}
