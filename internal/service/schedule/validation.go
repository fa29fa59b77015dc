package schedule

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/schedule/models"
)

func validateCreateSlot(req *models.CreateSlotRequest, now time.Time) error {
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if domain.TruncateDate(req.Date).Before(domain.TruncateDate(now)) {
		return fmt.Errorf("%w: date is in the past", ErrInvalidInput)
	}
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: start_time must be HH:MM", ErrInvalidInput)
	}
	if req.DurationMinutes < domain.MinSlotDurationMinutes || req.DurationMinutes > domain.MaxSlotDurationMinutes {
		return fmt.Errorf("%w: duration_minutes must be between %d and %d",
			ErrInvalidInput, domain.MinSlotDurationMinutes, domain.MaxSlotDurationMinutes)
	}
	if req.MaxBookings < domain.MinSlotCapacity || req.MaxBookings > domain.MaxSlotCapacity {
		return fmt.Errorf("%w: max_bookings must be between %d and %d",
			ErrInvalidInput, domain.MinSlotCapacity, domain.MaxSlotCapacity)
	}
	return nil
}

// validateWorkingDay проверяет строку шаблона перед сохранением
// Генератор отбрасывает некорректные дни сам, но сохранять их не даем
func validateWorkingDay(day *domain.WorkingDay) error {
	if day.Weekday < time.Sunday || day.Weekday > time.Saturday {
		return fmt.Errorf("%w: unknown weekday", ErrInvalidInput)
	}
	if day.SlotDurationMinutes < domain.MinSlotDurationMinutes || day.SlotDurationMinutes > domain.MaxSlotDurationMinutes {
		return fmt.Errorf("%w: slot_duration_minutes must be between %d and %d",
			ErrInvalidInput, domain.MinSlotDurationMinutes, domain.MaxSlotDurationMinutes)
	}
	if day.MaxSlotsPerHour < domain.MinSlotCapacity || day.MaxSlotsPerHour > domain.MaxSlotCapacity {
		return fmt.Errorf("%w: max_slots_per_hour must be between %d and %d",
			ErrInvalidInput, domain.MinSlotCapacity, domain.MaxSlotCapacity)
	}
	if !isWellFormed(day) {
		return fmt.Errorf("%w: working hours or break window are inconsistent", ErrInvalidInput)
	}
	return nil
}
