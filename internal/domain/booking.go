package domain

import (
	"time"

	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
	StatusNoShow     BookingStatus = "no_show"
)

// bookingTransitions legal moves of the booking state machine
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// IsValid reports whether s is a known status
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// ReleasesCapacity reports whether entering s gives the slot place back
func (s BookingStatus) ReleasesCapacity() bool {
	return s == StatusCancelled || s == StatusNoShow
}

// CanTransition reports whether from -> to is a legal transition
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentMethod how the customer pays
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

// PaymentStatus state of the payment intent attached to a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Booking represents a committed, priced reservation of a slot
type Booking struct {
	ID        int64
	Reference string
	Status    BookingStatus

	// Customer snapshot, UserID is set for linked accounts
	UserID        *int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone *string

	// Vehicle snapshot
	VehicleID           *int64
	VehicleMake         string
	VehicleModel        string
	VehicleRegistration string
	VehicleSize         VehicleSize

	ServiceID       int64
	ServiceName     string
	SlotID          int64
	BookingDate     time.Time
	StartTime       types.TimeString
	DurationMinutes int
	Postcode        *string
	Notes           *string

	// Price breakdown in pence
	ServicePricePence    int64
	TravelSurchargePence int64
	DiscountPercent      int
	DiscountPence        int64
	TotalPricePence      int64
	LoyaltyTier          Tier

	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	PaymentIntentID *string

	ConfirmedAt        *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still holds its slot
func (b *Booking) IsActive() bool {
	return !b.Status.ReleasesCapacity()
}

// IsCancelled returns true if the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// CanBeCancelled returns true if the booking may still be cancelled
func (b *Booking) CanBeCancelled() bool {
	return CanTransition(b.Status, StatusCancelled)
}

// IsOwnedBy reports whether the booking is linked to the user
func (b *Booking) IsOwnedBy(userID int64) bool {
	return b.UserID != nil && *b.UserID == userID
}

// SlotKey returns the lock key of the booked slot
func (b *Booking) SlotKey() SlotKey {
	return NewSlotKey(b.BookingDate, b.StartTime)
}

// BookingsFilter фильтр для списков бронирований
type BookingsFilter struct {
	UserID    *int64         // Только бронирования пользователя
	StartDate *time.Time     // Начало периода (включительно)
	EndDate   *time.Time     // Конец периода (включительно)
	Status    *BookingStatus // Фильтр по статусу
	Limit     int
	Offset    int
}
