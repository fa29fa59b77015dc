package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	bookingModels "github.com/m04kA/SMC-DetailingService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-DetailingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

type CustomerRequest struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

// VehicleRequest сохраненный автомобиль (id) или новый
type VehicleRequest struct {
	ID           *int64 `json:"id,omitempty"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	Registration string `json:"registration,omitempty"`
	Size         string `json:"size,omitempty"`
}

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	Date          string          `json:"date"`       // "2025-06-02"
	StartTime     string          `json:"start_time"` // "10:00"
	LockToken     string          `json:"lock_token"`
	ServiceID     int64           `json:"service_id"`
	Customer      CustomerRequest `json:"customer"`
	Vehicle       VehicleRequest  `json:"vehicle"`
	Postcode      *string         `json:"postcode,omitempty"`
	DistanceMiles *float64        `json:"distance_miles,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(actor domain.Actor) (*createBooking.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", r.Date)
	}
	start, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time %q", r.StartTime)
	}

	return &createBooking.Request{
		Actor:     actor,
		Date:      date,
		StartTime: start,
		LockToken: r.LockToken,
		ServiceID: r.ServiceID,
		Customer: createBooking.Customer{
			Name:  r.Customer.Name,
			Email: r.Customer.Email,
			Phone: r.Customer.Phone,
		},
		Vehicle: createBooking.Vehicle{
			ID:           r.Vehicle.ID,
			Make:         r.Vehicle.Make,
			Model:        r.Vehicle.Model,
			Registration: r.Vehicle.Registration,
			Size:         r.Vehicle.Size,
		},
		Postcode:      r.Postcode,
		DistanceMiles: r.DistanceMiles,
		Notes:         r.Notes,
		PaymentMethod: r.PaymentMethod,
	}, nil
}

// PasswordSetupResponse выдается только при создании аккаунта этим бронированием
type PasswordSetupResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	Booking         *bookingModels.BookingResponse `json:"booking"`
	PaymentIntentID string                         `json:"payment_intent_id"`
	AccountCreated  bool                           `json:"account_created"`
	PasswordSetup   *PasswordSetupResponse         `json:"password_setup,omitempty"`
	PriceDegraded   bool                           `json:"price_degraded,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP ответ
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	out := &CreateBookingResponse{
		Booking:         bookingModels.FromDomainBooking(resp.Booking),
		PaymentIntentID: resp.PaymentIntentID,
		AccountCreated:  resp.AccountCreated,
		PriceDegraded:   resp.PriceDegraded,
	}
	if resp.PasswordSetup != nil {
		out.PasswordSetup = &PasswordSetupResponse{
			Token:     resp.PasswordSetup.Token,
			ExpiresAt: resp.PasswordSetup.ExpiresAt,
		}
	}
	return out
}
