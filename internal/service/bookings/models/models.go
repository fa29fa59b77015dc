package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	Actor              domain.Actor `json:"-"`
	CancellationReason *string      `json:"cancellation_reason,omitempty"`
}

// UpdateStatusRequest запрос на смену статуса (только администратор)
type UpdateStatusRequest struct {
	Actor  domain.Actor `json:"-"`
	Status string       `json:"status"`
	Reason *string      `json:"reason,omitempty"`
}

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	Actor  domain.Actor `json:"-"`
	UserID int64        `json:"user_id"`
	Status *string      `json:"status,omitempty"`
}

// ListBookingsRequest запрос администратора на список бронирований
type ListBookingsRequest struct {
	Actor     domain.Actor
	StartDate *time.Time // Начало периода (опционально)
	EndDate   *time.Time // Конец периода (опционально)
	Status    *string    // Фильтр по статусу (опционально)
	UserID    *int64
	Limit     int
	Offset    int
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		UserID:    r.UserID,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Limit:     r.Limit,
		Offset:    r.Offset,
	}

	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Конвертируем статус если указан
	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// PriceResponse разбивка цены в пенсах
type PriceResponse struct {
	ServicePricePence    int64  `json:"service_price_pence"`
	TravelSurchargePence int64  `json:"travel_surcharge_pence"`
	DiscountPercent      int    `json:"discount_percent"`
	DiscountPence        int64  `json:"discount_pence"`
	TotalPricePence      int64  `json:"total_price_pence"`
	LoyaltyTier          string `json:"loyalty_tier"`
}

// VehicleResponse снимок автомобиля
type VehicleResponse struct {
	ID           *int64 `json:"id,omitempty"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Registration string `json:"registration"`
	Size         string `json:"size"`
}

// CustomerResponse снимок клиента
type CustomerResponse struct {
	UserID *int64  `json:"user_id,omitempty"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Phone  *string `json:"phone,omitempty"`
}

// PaymentResponse состояние оплаты
type PaymentResponse struct {
	Method   string  `json:"method"`
	Status   string  `json:"status"`
	IntentID *string `json:"intent_id,omitempty"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64            `json:"id"`
	Reference       string           `json:"reference"`
	Status          string           `json:"status"`
	SlotID          int64            `json:"slot_id"`
	SlotKey         string           `json:"slot_key"`
	BookingDate     string           `json:"booking_date"` // "2025-06-02"
	StartTime       string           `json:"start_time"`   // "10:00"
	DurationMinutes int              `json:"duration_minutes"`
	ServiceID       int64            `json:"service_id"`
	ServiceName     string           `json:"service_name"`
	Customer        CustomerResponse `json:"customer"`
	Vehicle         VehicleResponse  `json:"vehicle"`
	Postcode        *string          `json:"postcode,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	Price           PriceResponse    `json:"price"`
	Payment         PaymentResponse  `json:"payment"`

	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// CancelBookingResponse результат отмены
type CancelBookingResponse struct {
	Booking          *BookingResponse `json:"booking"`
	AlreadyCancelled bool             `json:"already_cancelled"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	return &BookingResponse{
		ID:              b.ID,
		Reference:       b.Reference,
		Status:          string(b.Status),
		SlotID:          b.SlotID,
		SlotKey:         b.SlotKey().String(),
		BookingDate:     b.BookingDate.Format(domain.DateFormat),
		StartTime:       b.StartTime.String(),
		DurationMinutes: b.DurationMinutes,
		ServiceID:       b.ServiceID,
		ServiceName:     b.ServiceName,
		Customer: CustomerResponse{
			UserID: b.UserID,
			Name:   b.CustomerName,
			Email:  b.CustomerEmail,
			Phone:  b.CustomerPhone,
		},
		Vehicle: VehicleResponse{
			ID:           b.VehicleID,
			Make:         b.VehicleMake,
			Model:        b.VehicleModel,
			Registration: b.VehicleRegistration,
			Size:         string(b.VehicleSize),
		},
		Postcode: b.Postcode,
		Notes:    b.Notes,
		Price: PriceResponse{
			ServicePricePence:    b.ServicePricePence,
			TravelSurchargePence: b.TravelSurchargePence,
			DiscountPercent:      b.DiscountPercent,
			DiscountPence:        b.DiscountPence,
			TotalPricePence:      b.TotalPricePence,
			LoyaltyTier:          string(b.LoyaltyTier),
		},
		Payment: PaymentResponse{
			Method:   string(b.PaymentMethod),
			Status:   string(b.PaymentStatus),
			IntentID: b.PaymentIntentID,
		},
		ConfirmedAt:        b.ConfirmedAt,
		StartedAt:          b.StartedAt,
		CompletedAt:        b.CompletedAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
