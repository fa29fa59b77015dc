package list_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/api/middleware"
	"github.com/m04kA/SMC-DetailingService/internal/service/bookings"
	"github.com/m04kA/SMC-DetailingService/internal/service/bookings/models"
)

const (
	msgInvalidQuery = "некорректные параметры запроса"
	msgForbidden    = "доступ запрещен"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings?start_date=&end_date=&status=&user_id=&limit=&offset=
// Только администратор
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := parseQuery(r)
	if err != nil {
		h.logger.Warn("GET /bookings - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}
	req.Actor = middleware.GetActor(r.Context())

	result, err := h.service.ListBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /bookings - Access denied: actor=%d", req.Actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /bookings - Invalid filter: %v", err)
			handlers.RespondBadRequest(w, err.Error())
		default:
			h.logger.Error("GET /bookings - Failed to list bookings: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookings - Bookings listed: count=%d", len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}

func parseQuery(r *http.Request) (*models.ListBookingsRequest, error) {
	start, err := handlers.QueryDate(r, "start_date", false)
	if err != nil {
		return nil, err
	}
	end, err := handlers.QueryDate(r, "end_date", false)
	if err != nil {
		return nil, err
	}
	userID, err := handlers.QueryInt64(r, "user_id")
	if err != nil {
		return nil, err
	}

	req := &models.ListBookingsRequest{
		StartDate: start,
		EndDate:   end,
		Status:    handlers.QueryString(r, "status"),
		UserID:    userID,
	}

	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		if req.Limit, err = strconv.Atoi(raw); err != nil {
			return nil, err
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if req.Offset, err = strconv.Atoi(raw); err != nil {
			return nil, err
		}
	}
	return req, nil
}
