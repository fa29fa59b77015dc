package manage_schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// Действия POST /schedule
const (
	ActionCreateSlot        = "create_slot"
	ActionCreateWeeklySlots = "create_weekly_slots"
	ActionToggleWorkingDay  = "toggle_working_day"
	ActionUpdateTemplate    = "update_template"
	ActionBlockSlot         = "block_slot"
	ActionUnblockSlot       = "unblock_slot"
)

var errMissingField = errors.New("missing field")

// ScheduleActionRequest HTTP request model, набор полей зависит от action
type ScheduleActionRequest struct {
	Action string `json:"action"`

	SlotID    *int64  `json:"slot_id,omitempty"`
	Date      *string `json:"date,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Weekday   *string `json:"weekday,omitempty"` // monday..sunday или 0..6

	StartTime  *string `json:"start_time,omitempty"`
	EndTime    *string `json:"end_time,omitempty"`
	BreakStart *string `json:"break_start,omitempty"`
	BreakEnd   *string `json:"break_end,omitempty"`

	DurationMinutes     int   `json:"duration_minutes,omitempty"`
	MaxBookings         int   `json:"max_bookings,omitempty"`
	SlotDurationMinutes int   `json:"slot_duration_minutes,omitempty"`
	MaxSlotsPerHour     int   `json:"max_slots_per_hour,omitempty"`
	IsWorkingDay        *bool `json:"is_working_day,omitempty"`

	Reason *string `json:"reason,omitempty"`
}

func (r *ScheduleActionRequest) toCreateSlot() (*models.CreateSlotRequest, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return nil, err
	}
	start, err := parseTime("start_time", r.StartTime)
	if err != nil {
		return nil, err
	}
	return &models.CreateSlotRequest{
		Date:            date,
		StartTime:       start,
		DurationMinutes: r.DurationMinutes,
		MaxBookings:     r.MaxBookings,
	}, nil
}

func (r *ScheduleActionRequest) toCreateWeeklySlots() (*models.CreateWeeklySlotsRequest, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return nil, err
	}
	return &models.CreateWeeklySlotsRequest{StartDate: start, EndDate: end}, nil
}

func (r *ScheduleActionRequest) toToggleWorkingDay() (*models.ToggleWorkingDayRequest, error) {
	if r.IsWorkingDay == nil {
		return nil, fmt.Errorf("%w: is_working_day", errMissingField)
	}
	req := &models.ToggleWorkingDayRequest{IsWorkingDay: *r.IsWorkingDay, Reason: r.Reason}

	switch {
	case r.Date != nil:
		date, err := parseDate("date", r.Date)
		if err != nil {
			return nil, err
		}
		req.Date = &date
	case r.Weekday != nil:
		weekday, err := parseWeekday(*r.Weekday)
		if err != nil {
			return nil, err
		}
		req.Weekday = &weekday
	default:
		return nil, fmt.Errorf("%w: weekday or date", errMissingField)
	}
	return req, nil
}

func (r *ScheduleActionRequest) toUpdateTemplate() (*models.UpdateTemplateRequest, error) {
	if r.Weekday == nil {
		return nil, fmt.Errorf("%w: weekday", errMissingField)
	}
	weekday, err := parseWeekday(*r.Weekday)
	if err != nil {
		return nil, err
	}
	start, err := parseTime("start_time", r.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseTime("end_time", r.EndTime)
	if err != nil {
		return nil, err
	}

	req := &models.UpdateTemplateRequest{
		Weekday:             weekday,
		IsWorkingDay:        r.IsWorkingDay == nil || *r.IsWorkingDay,
		StartTime:           start,
		EndTime:             end,
		SlotDurationMinutes: r.SlotDurationMinutes,
		MaxSlotsPerHour:     r.MaxSlotsPerHour,
	}
	if r.BreakStart != nil {
		bs, err := parseTime("break_start", r.BreakStart)
		if err != nil {
			return nil, err
		}
		req.BreakStart = &bs
	}
	if r.BreakEnd != nil {
		be, err := parseTime("break_end", r.BreakEnd)
		if err != nil {
			return nil, err
		}
		req.BreakEnd = &be
	}
	return req, nil
}

func parseDate(field string, raw *string) (time.Time, error) {
	if raw == nil || *raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s", errMissingField, field)
	}
	date, err := time.Parse(domain.DateFormat, *raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q", field, *raw)
	}
	return date, nil
}

func parseTime(field string, raw *string) (types.TimeString, error) {
	if raw == nil || *raw == "" {
		return "", fmt.Errorf("%w: %s", errMissingField, field)
	}
	t, err := types.NewTimeStringFromString(*raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q", field, *raw)
	}
	return t, nil
}

func parseWeekday(raw string) (time.Weekday, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == raw {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", raw)
}
