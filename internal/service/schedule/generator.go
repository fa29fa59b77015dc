package schedule

import (
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// GenerateSlots строит слоты по недельному шаблону и исключениям для диапазона дат [from, to]
//
// Для каждой даты:
// - исключение для даты важнее шаблона дня недели
// - нерабочий день или некорректные настройки дня дают ноль слотов
// - слоты идут от начала дня с шагом slot_duration, пока начало + длительность <= конца дня
// - слот, начало которого попадает в перерыв [break_start, break_end), пропускается
// - даты раньше today отбрасываются
//
// Результат упорядочен по дате, затем по времени начала
func GenerateSlots(
	template domain.WeeklyTemplate,
	overrides map[string]*domain.ScheduleOverride,
	from, to, today time.Time,
) []*domain.Slot {
	from = domain.TruncateDate(from)
	to = domain.TruncateDate(to)
	today = domain.TruncateDate(today)

	result := make([]*domain.Slot, 0)
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		if date.Before(today) {
			continue
		}

		day := domain.EffectiveDay(date, template, overrides[date.Format(domain.DateFormat)])
		if day == nil || !day.IsWorkingDay {
			continue
		}

		result = append(result, generateDay(date, day)...)
	}

	return result
}

// generateDay генерирует слоты одной даты. Некорректный день дает пустой список
func generateDay(date time.Time, day *domain.WorkingDay) []*domain.Slot {
	if !isWellFormed(day) {
		return nil
	}

	start := day.StartTime.Minutes()
	end := day.EndTime.Minutes()
	duration := day.SlotDurationMinutes

	breakStart, breakEnd := -1, -1
	if day.HasBreak() {
		breakStart = day.BreakStart.Minutes()
		breakEnd = day.BreakEnd.Minutes()
	}

	slots := make([]*domain.Slot, 0)
	for t := start; t+duration <= end; t += duration {
		if t >= breakStart && t < breakEnd {
			continue
		}

		slotStart, err := types.NewTimeStringFromMinutes(t)
		if err != nil {
			break
		}
		// Конец дня может быть ровно 24:00, такой слот не представим
		slotEnd, err := types.NewTimeStringFromMinutes(t + duration)
		if err != nil {
			break
		}

		slots = append(slots, &domain.Slot{
			Date:            date,
			StartTime:       slotStart,
			EndTime:         slotEnd,
			DurationMinutes: duration,
			MaxBookings:     day.MaxSlotsPerHour,
		})
	}

	return slots
}

func isWellFormed(day *domain.WorkingDay) bool {
	if day.StartTime.Validate() != nil || day.EndTime.Validate() != nil {
		return false
	}
	if !day.StartTime.IsBefore(day.EndTime) {
		return false
	}
	if day.SlotDurationMinutes <= 0 || day.MaxSlotsPerHour <= 0 {
		return false
	}

	// Перерыв задается целиком или не задается вовсе
	if (day.BreakStart == nil) != (day.BreakEnd == nil) {
		return false
	}
	if day.HasBreak() {
		if day.BreakStart.Validate() != nil || day.BreakEnd.Validate() != nil {
			return false
		}
		if !day.BreakStart.IsBefore(*day.BreakEnd) {
			return false
		}
		if day.BreakStart.IsBefore(day.StartTime) || day.BreakEnd.IsAfter(day.EndTime) {
			return false
		}
	}

	return true
}
