package domain

import (
	"time"

	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// WorkingDay is the weekly template row for one weekday
type WorkingDay struct {
	Weekday             time.Weekday
	IsWorkingDay        bool
	StartTime           types.TimeString
	EndTime             types.TimeString
	BreakStart          *types.TimeString
	BreakEnd            *types.TimeString
	SlotDurationMinutes int
	MaxSlotsPerHour     int // Capacity of every generated slot
	UpdatedAt           time.Time
}

// HasBreak returns true if the day has a break window
func (d *WorkingDay) HasBreak() bool {
	return d.BreakStart != nil && d.BreakEnd != nil
}

// WeeklyTemplate template rows keyed by weekday
type WeeklyTemplate map[time.Weekday]*WorkingDay

// ScheduleOverride replaces the weekly template for one date
// Nil hours fall back to the template hours of that weekday
type ScheduleOverride struct {
	Date         time.Time
	IsWorkingDay bool
	StartTime    *types.TimeString
	EndTime      *types.TimeString
	Reason       *string
	UpdatedAt    time.Time
}

// EffectiveDay resolves the working day of a date: an override wins over the weekday template,
// hours missing from the override come from the template. Returns nil when neither exists
func EffectiveDay(date time.Time, template WeeklyTemplate, override *ScheduleOverride) *WorkingDay {
	base := template[date.Weekday()]
	if override == nil {
		if base == nil {
			return nil
		}
		day := *base
		return &day
	}

	day := WorkingDay{
		Weekday:             date.Weekday(),
		SlotDurationMinutes: DefaultSlotDurationMinutes,
		MaxSlotsPerHour:     DefaultSlotCapacity,
	}
	if base != nil {
		day = *base
	}

	day.IsWorkingDay = override.IsWorkingDay
	if override.StartTime != nil {
		day.StartTime = *override.StartTime
	}
	if override.EndTime != nil {
		day.EndTime = *override.EndTime
	}
	return &day
}
