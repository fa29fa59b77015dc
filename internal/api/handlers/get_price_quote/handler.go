package get_price_quote

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/api/middleware"
	"github.com/m04kA/SMC-DetailingService/internal/service/pricing"
)

const (
	msgInvalidServiceID = "укажите корректный service_id"
	msgInvalidDistance  = "некорректный distance_miles"
	msgInvalidUserID    = "некорректный user_id"
	msgServiceNotFound  = "услуга не найдена"
	msgUnknownPostcode  = "почтовый индекс не найден"
)

type Handler struct {
	service  PricingService
	currency string
	logger   Logger
}

func NewHandler(service PricingService, currency string, logger Logger) *Handler {
	if currency == "" {
		currency = "GBP"
	}
	return &Handler{
		service:  service,
		currency: currency,
		logger:   logger,
	}
}

// Handle GET /api/v1/pricing/quote?service_id=1&vehicle_size=medium&postcode=SW1A1AA
// Для авторизованного клиента учитывается скидка уровня лояльности
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceID, err := handlers.QueryInt64(r, "service_id")
	if err != nil || serviceID == nil || *serviceID <= 0 {
		h.logger.Warn("GET /pricing/quote - Invalid service_id: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	req := pricing.QuoteRequest{
		ServiceID:   *serviceID,
		VehicleSize: r.URL.Query().Get("vehicle_size"),
		Postcode:    handlers.QueryString(r, "postcode"),
	}

	if raw := r.URL.Query().Get("distance_miles"); raw != "" {
		miles, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil || miles < 0 {
			h.logger.Warn("GET /pricing/quote - Invalid distance_miles %q", raw)
			handlers.RespondBadRequest(w, msgInvalidDistance)
			return
		}
		req.DistanceMiles = &miles
	}

	// Администратор может посчитать цену для клиента через user_id
	actor := middleware.GetActor(r.Context())
	userID, err := handlers.QueryInt64(r, "user_id")
	switch {
	case err != nil:
		h.logger.Warn("GET /pricing/quote - Invalid user_id: %v", err)
		handlers.RespondBadRequest(w, msgInvalidUserID)
		return
	case userID != nil && actor.IsAdmin():
		req.UserID = userID
	case !actor.IsAnonymous():
		req.UserID = &actor.UserID
	}

	breakdown, err := h.service.Quote(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrInvalidInput):
			h.logger.Warn("GET /pricing/quote - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())
		case errors.Is(err, pricing.ErrServiceNotFound):
			h.logger.Warn("GET /pricing/quote - Service not found: %d", *serviceID)
			handlers.RespondNotFound(w, msgServiceNotFound)
		case errors.Is(err, pricing.ErrUnknownPostcode):
			h.logger.Warn("GET /pricing/quote - Unknown postcode")
			handlers.RespondBadRequest(w, msgUnknownPostcode)
		default:
			h.logger.Error("GET /pricing/quote - Failed to quote: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /pricing/quote - service=%d, size=%s, total=%d", breakdown.ServiceID, breakdown.VehicleSize, breakdown.TotalPence)
	handlers.RespondJSON(w, http.StatusOK, fromDomainBreakdown(breakdown, h.currency))
}
