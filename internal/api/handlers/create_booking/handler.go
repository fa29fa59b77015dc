package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/api/middleware"
	createBooking "github.com/m04kA/SMC-DetailingService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректная дата или время начала"
	msgValidationFailed   = "проверьте данные клиента и автомобиля"
	msgSlotUnavailable    = "выбранное время уже занято, выберите другой слот"
	msgAccountExists      = "аккаунт с таким email уже существует, войдите чтобы продолжить"
	msgInvalidVehicle     = "автомобиль не найден"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
// Доступен анонимно: для нового email создается аккаунт без пароля
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	actor := middleware.GetActor(r.Context())

	// Конвертируем HTTP запрос в модель use case (с парсингом даты и времени)
	useCaseReq, err := req.ToUseCaseRequest(actor)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrValidation):
			h.logger.Warn("POST /bookings - Validation failed: %v", err)
			handlers.RespondBadRequest(w, msgValidationFailed)

		case errors.Is(err, createBooking.ErrSlotUnavailable):
			h.logger.Warn("POST /bookings - Slot unavailable: slot=%s, user_id=%d", useCaseReq.SlotKey(), actor.UserID)
			handlers.RespondErrorWithCode(w, http.StatusConflict, handlers.CodeSlotUnavailable, msgSlotUnavailable)

		case errors.Is(err, createBooking.ErrAccountExists):
			h.logger.Info("POST /bookings - Account exists for anonymous booking")
			handlers.RespondErrorWithCode(w, http.StatusConflict, handlers.CodeAccountExists, msgAccountExists)

		case errors.Is(err, createBooking.ErrInvalidVehicle):
			h.logger.Warn("POST /bookings - Invalid vehicle: user_id=%d", actor.UserID)
			handlers.RespondBadRequest(w, msgInvalidVehicle)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: slot=%s, user_id=%d, error=%v",
				useCaseReq.SlotKey(), actor.UserID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created: reference=%s, booking_id=%d, account_created=%t",
		result.Booking.Reference, result.Booking.ID, result.AccountCreated)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
