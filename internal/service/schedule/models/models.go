package models

import (
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// Request модели

// CreateSlotRequest запрос на ручное создание слота
type CreateSlotRequest struct {
	Date            time.Time        `json:"-"`
	StartTime       types.TimeString `json:"start_time"`
	DurationMinutes int              `json:"duration_minutes"`
	MaxBookings     int              `json:"max_bookings"`
}

// CreateWeeklySlotsRequest запрос на материализацию шаблона в диапазоне дат
type CreateWeeklySlotsRequest struct {
	StartDate time.Time `json:"-"`
	EndDate   time.Time `json:"-"`
}

// ToggleWorkingDayRequest переключение рабочего дня
// Если задан Date - создается исключение для даты, иначе меняется шаблон дня недели
type ToggleWorkingDayRequest struct {
	Weekday      *time.Weekday `json:"-"`
	Date         *time.Time    `json:"-"`
	IsWorkingDay bool          `json:"is_working_day"`
	Reason       *string       `json:"reason,omitempty"`
}

// UpdateTemplateRequest запрос на изменение строки недельного шаблона
type UpdateTemplateRequest struct {
	Weekday             time.Weekday      `json:"-"`
	IsWorkingDay        bool              `json:"is_working_day"`
	StartTime           types.TimeString  `json:"start_time"`
	EndTime             types.TimeString  `json:"end_time"`
	BreakStart          *types.TimeString `json:"break_start,omitempty"`
	BreakEnd            *types.TimeString `json:"break_end,omitempty"`
	SlotDurationMinutes int               `json:"slot_duration_minutes"`
	MaxSlotsPerHour     int               `json:"max_slots_per_hour"`
}

// ToDomain конвертирует запрос в строку шаблона
func (r *UpdateTemplateRequest) ToDomain() *domain.WorkingDay {
	return &domain.WorkingDay{
		Weekday:             r.Weekday,
		IsWorkingDay:        r.IsWorkingDay,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		BreakStart:          r.BreakStart,
		BreakEnd:            r.BreakEnd,
		SlotDurationMinutes: r.SlotDurationMinutes,
		MaxSlotsPerHour:     r.MaxSlotsPerHour,
	}
}

// Response модели

// SlotResponse слот с вычисленной доступностью
type SlotResponse struct {
	ID              int64   `json:"id"`
	Date            string  `json:"date"`       // "2025-06-02"
	StartTime       string  `json:"start_time"` // "10:00"
	EndTime         string  `json:"end_time"`
	SlotKey         string  `json:"slot_key"` // "2025-06-02T10:00"
	DurationMinutes int     `json:"duration_minutes"`
	MaxBookings     int     `json:"max_bookings"`
	CurrentBookings int     `json:"current_bookings"`
	Remaining       int     `json:"remaining"`
	IsBlocked       bool    `json:"is_blocked"`
	BlockReason     *string `json:"block_reason,omitempty"`
	IsLocked        bool    `json:"is_locked"`
	Available       bool    `json:"available"`
}

// DayResponse слоты одной даты
type DayResponse struct {
	Date  string          `json:"date"`
	Slots []*SlotResponse `json:"slots"`
}

// ScheduleResponse слоты диапазона, сгруппированные по датам
type ScheduleResponse struct {
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Days      []*DayResponse `json:"days"`
}

// DayOverviewResponse сводка по дате
type DayOverviewResponse struct {
	Date          string `json:"date"`
	TotalSlots    int    `json:"total_slots"`
	TotalCapacity int    `json:"total_capacity"`
	Booked        int    `json:"booked"`
	Blocked       int    `json:"blocked"`
	Available     int    `json:"available"`
}

// OverviewResponse сводка по диапазону
type OverviewResponse struct {
	StartDate string                 `json:"start_date"`
	EndDate   string                 `json:"end_date"`
	Days      []*DayOverviewResponse `json:"days"`
}

// CreateWeeklySlotsResponse результат материализации шаблона
type CreateWeeklySlotsResponse struct {
	Generated int `json:"generated"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
}

// WorkingDayResponse строка недельного шаблона
type WorkingDayResponse struct {
	Weekday             string  `json:"weekday"`
	IsWorkingDay        bool    `json:"is_working_day"`
	StartTime           string  `json:"start_time"`
	EndTime             string  `json:"end_time"`
	BreakStart          *string `json:"break_start,omitempty"`
	BreakEnd            *string `json:"break_end,omitempty"`
	SlotDurationMinutes int     `json:"slot_duration_minutes"`
	MaxSlotsPerHour     int     `json:"max_slots_per_hour"`
}

// ToggleWorkingDayResponse результат переключения
type ToggleWorkingDayResponse struct {
	Weekday      *string `json:"weekday,omitempty"`
	Date         *string `json:"date,omitempty"`
	IsWorkingDay bool    `json:"is_working_day"`
}

// DeleteSlotResponse результат удаления: слот с бронированиями не удаляется, а блокируется
type DeleteSlotResponse struct {
	SlotID      int64         `json:"slot_id"`
	Deleted     bool          `json:"deleted"`
	SoftBlocked bool          `json:"soft_blocked"`
	Slot        *SlotResponse `json:"slot,omitempty"`
}

// Конвертеры

// FromDomainSlot конвертирует слот в ответ
func FromDomainSlot(slot *domain.Slot, locked bool, today time.Time) *SlotResponse {
	return &SlotResponse{
		ID:              slot.ID,
		Date:            slot.Date.Format(domain.DateFormat),
		StartTime:       slot.StartTime.String(),
		EndTime:         slot.EndTime.String(),
		SlotKey:         slot.Key().String(),
		DurationMinutes: slot.DurationMinutes,
		MaxBookings:     slot.MaxBookings,
		CurrentBookings: slot.CurrentBookings,
		Remaining:       slot.RemainingCapacity(),
		IsBlocked:       slot.IsBlocked,
		BlockReason:     slot.BlockReason,
		IsLocked:        locked,
		Available:       slot.IsOrderable(today) && !locked,
	}
}

// FromDomainOverview конвертирует сводку по дате
func FromDomainOverview(o *domain.DayOverview) *DayOverviewResponse {
	return &DayOverviewResponse{
		Date:          o.Date.Format(domain.DateFormat),
		TotalSlots:    o.TotalSlots,
		TotalCapacity: o.TotalCapacity,
		Booked:        o.Booked,
		Blocked:       o.Blocked,
		Available:     o.Available,
	}
}

// FromDomainWorkingDay конвертирует строку шаблона
func FromDomainWorkingDay(d *domain.WorkingDay) *WorkingDayResponse {
	resp := &WorkingDayResponse{
		Weekday:             d.Weekday.String(),
		IsWorkingDay:        d.IsWorkingDay,
		StartTime:           d.StartTime.String(),
		EndTime:             d.EndTime.String(),
		SlotDurationMinutes: d.SlotDurationMinutes,
		MaxSlotsPerHour:     d.MaxSlotsPerHour,
	}
	if d.BreakStart != nil {
		s := d.BreakStart.String()
		resp.BreakStart = &s
	}
	if d.BreakEnd != nil {
		s := d.BreakEnd.String()
		resp.BreakEnd = &s
	}
	return resp
}
