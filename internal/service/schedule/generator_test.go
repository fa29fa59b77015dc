package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/ptr"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// 2025-06-02 - понедельник
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func mondayTemplate() domain.WeeklyTemplate {
	return domain.WeeklyTemplate{
		time.Monday: {
			Weekday:             time.Monday,
			IsWorkingDay:        true,
			StartTime:           types.MustTimeString("09:00"),
			EndTime:             types.MustTimeString("17:00"),
			BreakStart:          ptr.Ptr(types.MustTimeString("12:00")),
			BreakEnd:            ptr.Ptr(types.MustTimeString("13:00")),
			SlotDurationMinutes: 120,
			MaxSlotsPerHour:     2,
		},
		time.Tuesday: {
			Weekday:             time.Tuesday,
			IsWorkingDay:        false,
			StartTime:           types.MustTimeString("09:00"),
			EndTime:             types.MustTimeString("17:00"),
			SlotDurationMinutes: 60,
			MaxSlotsPerHour:     1,
		},
	}
}

func startTimes(slots []*domain.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartTime.String())
	}
	return out
}

func TestGenerateSlots_BreakAndEndOfDay(t *testing.T) {
	slots := GenerateSlots(mondayTemplate(), nil, monday, monday, monday)

	require.Len(t, slots, 4)
	assert.Equal(t, []string{"09:00", "11:00", "13:00", "15:00"}, startTimes(slots))
	for _, s := range slots {
		assert.Equal(t, 120, s.DurationMinutes)
		assert.Equal(t, 2, s.MaxBookings)
		assert.Equal(t, 0, s.CurrentBookings)
	}
	assert.Equal(t, "17:00", slots[3].EndTime.String())
}

func TestGenerateSlots_NonWorkingDay(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	assert.Empty(t, GenerateSlots(mondayTemplate(), nil, tuesday, tuesday, monday))

	// Без строки шаблона день тоже нерабочий
	sunday := monday.AddDate(0, 0, 6)
	assert.Empty(t, GenerateSlots(mondayTemplate(), nil, sunday, sunday, monday))
}

func TestGenerateSlots_OverrideReenablesDay(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	overrides := map[string]*domain.ScheduleOverride{
		tuesday.Format(domain.DateFormat): {
			Date:         tuesday,
			IsWorkingDay: true,
			StartTime:    ptr.Ptr(types.MustTimeString("10:00")),
			EndTime:      ptr.Ptr(types.MustTimeString("12:00")),
		},
	}

	slots := GenerateSlots(mondayTemplate(), overrides, tuesday, tuesday, monday)
	assert.Equal(t, []string{"10:00", "11:00"}, startTimes(slots))
}

func TestGenerateSlots_OverrideClosesDay(t *testing.T) {
	overrides := map[string]*domain.ScheduleOverride{
		monday.Format(domain.DateFormat): {Date: monday, IsWorkingDay: false},
	}
	assert.Empty(t, GenerateSlots(mondayTemplate(), overrides, monday, monday, monday))
}

func TestGenerateSlots_MalformedDayFailsClosed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *domain.WorkingDay)
	}{
		{"start after end", func(d *domain.WorkingDay) { d.StartTime = types.MustTimeString("18:00") }},
		{"start equals end", func(d *domain.WorkingDay) { d.EndTime = d.StartTime }},
		{"zero duration", func(d *domain.WorkingDay) { d.SlotDurationMinutes = 0 }},
		{"zero capacity", func(d *domain.WorkingDay) { d.MaxSlotsPerHour = 0 }},
		{"reversed break", func(d *domain.WorkingDay) {
			d.BreakStart = ptr.Ptr(types.MustTimeString("13:00"))
			d.BreakEnd = ptr.Ptr(types.MustTimeString("12:00"))
		}},
		{"break outside hours", func(d *domain.WorkingDay) {
			d.BreakStart = ptr.Ptr(types.MustTimeString("16:00"))
			d.BreakEnd = ptr.Ptr(types.MustTimeString("18:00"))
		}},
		{"half break", func(d *domain.WorkingDay) { d.BreakEnd = nil }},
		{"bad time", func(d *domain.WorkingDay) { d.StartTime = "9am" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := mondayTemplate()
			tt.mutate(tpl[time.Monday])
			assert.Empty(t, GenerateSlots(tpl, nil, monday, monday, monday))
		})
	}
}

func TestGenerateSlots_PastDatesDropped(t *testing.T) {
	nextMonday := monday.AddDate(0, 0, 7)
	today := monday.AddDate(0, 0, 3)

	slots := GenerateSlots(mondayTemplate(), nil, monday, nextMonday, today)

	require.Len(t, slots, 4)
	for _, s := range slots {
		assert.True(t, s.Date.Equal(nextMonday))
	}
}

func TestGenerateSlots_OrderedByDateThenTime(t *testing.T) {
	slots := GenerateSlots(mondayTemplate(), nil, monday, monday.AddDate(0, 0, 13), monday)

	require.Len(t, slots, 8)
	for i := 1; i < len(slots); i++ {
		prev, cur := slots[i-1], slots[i]
		if prev.Date.Equal(cur.Date) {
			assert.True(t, prev.StartTime.IsBefore(cur.StartTime))
		} else {
			assert.True(t, prev.Date.Before(cur.Date))
		}
	}
}
