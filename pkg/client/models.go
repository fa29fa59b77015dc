package client

import (
	"encoding/json"
	"time"
)

// Slot слот расписания
// Сервер и старые клиенты отдают то id, то slot_id, то start_time, то time.
// Нормализация выполняется при декодировании, дальше по коду ходит только эта форма
type Slot struct {
	ID              int64   `json:"id"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	SlotKey         string  `json:"slot_key"`
	DurationMinutes int     `json:"duration_minutes"`
	MaxBookings     int     `json:"max_bookings"`
	CurrentBookings int     `json:"current_bookings"`
	Remaining       int     `json:"remaining"`
	IsBlocked       bool    `json:"is_blocked"`
	BlockReason     *string `json:"block_reason,omitempty"`
	IsLocked        bool    `json:"is_locked"`
	Available       bool    `json:"available"`
}

// UnmarshalJSON принимает оба варианта имен полей
func (s *Slot) UnmarshalJSON(data []byte) error {
	type plain Slot
	var raw struct {
		plain
		SlotID *int64  `json:"slot_id"`
		Time   *string `json:"time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Slot(raw.plain)
	if s.ID == 0 && raw.SlotID != nil {
		s.ID = *raw.SlotID
	}
	if s.StartTime == "" && raw.Time != nil {
		s.StartTime = *raw.Time
	}
	if s.SlotKey == "" && s.Date != "" && s.StartTime != "" {
		s.SlotKey = s.Date + "T" + s.StartTime
	}
	return nil
}

// Day слоты одной даты
type Day struct {
	Date  string  `json:"date"`
	Slots []*Slot `json:"slots"`
}

// Schedule расписание диапазона дат
type Schedule struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      []*Day `json:"days"`
}

// DayOverview сводка загрузки по дате
type DayOverview struct {
	Date          string `json:"date"`
	TotalSlots    int    `json:"total_slots"`
	TotalCapacity int    `json:"total_capacity"`
	Booked        int    `json:"booked"`
	Blocked       int    `json:"blocked"`
	Available     int    `json:"available"`
}

type Overview struct {
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Days      []*DayOverview `json:"days"`
}

// Lock блокировка слота на время оформления
type Lock struct {
	SlotKey   string    `json:"slot_key"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Availability struct {
	SlotKey   string `json:"slot_key"`
	Available bool   `json:"available"`
}

// Quote разбивка цены в пенсах
type Quote struct {
	ServiceID            int64    `json:"service_id"`
	ServiceName          string   `json:"service_name,omitempty"`
	VehicleSize          string   `json:"vehicle_size"`
	DurationMinutes      int      `json:"duration_minutes"`
	ServicePricePence    int64    `json:"service_price_pence"`
	DistanceMiles        *float64 `json:"distance_miles,omitempty"`
	TravelSurchargePence int64    `json:"travel_surcharge_pence"`
	LoyaltyTier          string   `json:"loyalty_tier"`
	DiscountPercent      int      `json:"discount_percent"`
	DiscountPence        int64    `json:"discount_pence"`
	TotalPricePence      int64    `json:"total_price_pence"`
	Currency             string   `json:"currency"`
	Degraded             bool     `json:"degraded"`
}

type QuoteInput struct {
	ServiceID     int64
	VehicleSize   string
	Postcode      string
	DistanceMiles *float64
	UserID        *int64 // Учитывается только для администратора
}

type Customer struct {
	UserID *int64  `json:"user_id,omitempty"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Phone  *string `json:"phone,omitempty"`
}

type Vehicle struct {
	ID           *int64 `json:"id,omitempty"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	Registration string `json:"registration,omitempty"`
	Size         string `json:"size,omitempty"`
}

type Price struct {
	ServicePricePence    int64  `json:"service_price_pence"`
	TravelSurchargePence int64  `json:"travel_surcharge_pence"`
	DiscountPercent      int    `json:"discount_percent"`
	DiscountPence        int64  `json:"discount_pence"`
	TotalPricePence      int64  `json:"total_price_pence"`
	LoyaltyTier          string `json:"loyalty_tier"`
}

type Payment struct {
	Method   string  `json:"method"`
	Status   string  `json:"status"`
	IntentID *string `json:"intent_id,omitempty"`
}

// Booking бронирование
type Booking struct {
	ID                 int64      `json:"id"`
	Reference          string     `json:"reference"`
	Status             string     `json:"status"`
	SlotID             int64      `json:"slot_id"`
	SlotKey            string     `json:"slot_key"`
	BookingDate        string     `json:"booking_date"`
	StartTime          string     `json:"start_time"`
	DurationMinutes    int        `json:"duration_minutes"`
	ServiceID          int64      `json:"service_id"`
	ServiceName        string     `json:"service_name"`
	Customer           Customer   `json:"customer"`
	Vehicle            Vehicle    `json:"vehicle"`
	Postcode           *string    `json:"postcode,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	Price              Price      `json:"price"`
	Payment            Payment    `json:"payment"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// UnmarshalJSON принимает time вместо start_time
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	var raw struct {
		plain
		Time *string `json:"time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Booking(raw.plain)
	if b.StartTime == "" && raw.Time != nil {
		b.StartTime = *raw.Time
	}
	if b.SlotKey == "" && b.BookingDate != "" && b.StartTime != "" {
		b.SlotKey = b.BookingDate + "T" + b.StartTime
	}
	return nil
}

// IsCancelled true для отмененного бронирования
func (b *Booking) IsCancelled() bool {
	return b.Status == "cancelled"
}

// CreateBookingInput тело POST /bookings
type CreateBookingInput struct {
	Date          string   `json:"date"`
	StartTime     string   `json:"start_time"`
	LockToken     string   `json:"lock_token"`
	ServiceID     int64    `json:"service_id"`
	Customer      Customer `json:"customer"`
	Vehicle       Vehicle  `json:"vehicle"`
	Postcode      *string  `json:"postcode,omitempty"`
	DistanceMiles *float64 `json:"distance_miles,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	PaymentMethod string   `json:"payment_method,omitempty"`
}

// SlotKey ключ слота бронирования
func (in *CreateBookingInput) SlotKey() string {
	return in.Date + "T" + in.StartTime
}

type PasswordSetup struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreateBookingResult struct {
	Booking         *Booking       `json:"booking"`
	PaymentIntentID string         `json:"payment_intent_id"`
	AccountCreated  bool           `json:"account_created"`
	PasswordSetup   *PasswordSetup `json:"password_setup,omitempty"`
	PriceDegraded   bool           `json:"price_degraded,omitempty"`
}

type CancelResult struct {
	Booking          *Booking `json:"booking"`
	AlreadyCancelled bool     `json:"already_cancelled"`
}

type BookingList struct {
	Bookings []*Booking `json:"bookings"`
}

// ListFilter фильтр GET /bookings
type ListFilter struct {
	StartDate string
	EndDate   string
	Status    string
	UserID    *int64
	Limit     int
	Offset    int
}

type RewardTransaction struct {
	ID        int64     `json:"id"`
	BookingID *int64    `json:"booking_id,omitempty"`
	Type      string    `json:"type"`
	Points    int64     `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type RewardsAccount struct {
	UserID           int64                `json:"user_id"`
	PointsBalance    int64                `json:"points_balance"`
	LifetimePoints   int64                `json:"lifetime_points"`
	Tier             string               `json:"tier"`
	DiscountPercent  int                  `json:"discount_percent"`
	NextTier         *string              `json:"next_tier,omitempty"`
	PointsToNextTier *int64               `json:"points_to_next_tier,omitempty"`
	History          []*RewardTransaction `json:"history"`
}
