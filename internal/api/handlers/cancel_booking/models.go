package cancel_booking

import (
	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/bookings/models"
)

// CancelBookingRequest HTTP request model, тело необязательно
type CancelBookingRequest struct {
	CancellationReason *string `json:"cancellation_reason,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(actor domain.Actor) *models.CancelBookingRequest {
	return &models.CancelBookingRequest{
		Actor:              actor,
		CancellationReason: r.CancellationReason,
	}
}
