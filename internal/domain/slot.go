package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// Slot represents one bookable appointment window
type Slot struct {
	ID              int64
	Date            time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	DurationMinutes int
	MaxBookings     int
	CurrentBookings int
	IsBlocked       bool
	BlockReason     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RemainingCapacity returns how many more bookings fit in the slot
func (s *Slot) RemainingCapacity() int {
	if s.CurrentBookings >= s.MaxBookings {
		return 0
	}
	return s.MaxBookings - s.CurrentBookings
}

// IsFull returns true if the slot has no capacity left
func (s *Slot) IsFull() bool {
	return s.RemainingCapacity() == 0
}

// IsOrderable reports whether a booking may still attach to the slot
func (s *Slot) IsOrderable(today time.Time) bool {
	return !s.IsBlocked && !s.IsFull() && !s.Date.Before(TruncateDate(today))
}

// Key returns the lock key of the slot
func (s *Slot) Key() SlotKey {
	return NewSlotKey(s.Date, s.StartTime)
}

// DaySlots slots of a single date
type DaySlots struct {
	Date  time.Time
	Slots []*Slot
}

// DayOverview aggregated counters of a single date
type DayOverview struct {
	Date          time.Time
	TotalSlots    int
	TotalCapacity int
	Booked        int
	Blocked       int
	Available     int
}

// SlotKey identifies a slot for locking, formatted as "2006-01-02T15:04"
type SlotKey string

// NewSlotKey builds a key from a date and a start time
func NewSlotKey(date time.Time, start types.TimeString) SlotKey {
	return SlotKey(date.Format(DateFormat) + "T" + start.String())
}

// Parse splits the key back into date and start time
func (k SlotKey) Parse() (time.Time, types.TimeString, error) {
	datePart, timePart, ok := strings.Cut(string(k), "T")
	if !ok {
		return time.Time{}, "", fmt.Errorf("%w: %q", ErrInvalidSlotKey, string(k))
	}

	date, err := time.Parse(DateFormat, datePart)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %q", ErrInvalidSlotKey, string(k))
	}

	start, err := types.NewTimeStringFromString(timePart)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %q", ErrInvalidSlotKey, string(k))
	}

	return date, start, nil
}

// Normalize returns the canonical spelling of the key.
// Parse accepts "HH:MM:SS" and surrounding spaces, so aliases of one slot must collapse to one key
func (k SlotKey) Normalize() (SlotKey, error) {
	date, start, err := k.Parse()
	if err != nil {
		return "", err
	}
	return NewSlotKey(date, start), nil
}

// Validate checks the key format
func (k SlotKey) Validate() error {
	_, _, err := k.Parse()
	return err
}

func (k SlotKey) String() string {
	return string(k)
}

// TruncateDate drops the time of day keeping the calendar date in UTC
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
