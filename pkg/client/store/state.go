package store

import (
	"sort"

	"github.com/m04kA/SMC-DetailingService/pkg/client"
)

// ScheduleState расписание загруженного диапазона, дни по возрастанию даты
type ScheduleState struct {
	StartDate string
	EndDate   string
	Days      []client.Day
	Loaded    bool
}

// BookingsState бронирования, видимые пользователю
type BookingsState struct {
	Items []client.Booking
}

// UIState состояние интерфейса
type UIState struct {
	SelectedDate    string
	SelectedSlotKey string
	Loading         bool
	LastError       string
	// Pending число оптимистичных изменений, ожидающих ответа сервера
	Pending int
}

type AuthState struct {
	UserID int64
	Role   string
}

// IsAdmin true для администратора
func (a AuthState) IsAdmin() bool {
	return a.Role == "admin"
}

// State снимок состояния клиента
// Значение неизменяемо: функции обновления возвращают новый State, не трогая исходный
type State struct {
	Schedule ScheduleState
	Bookings BookingsState
	UI       UIState
	Auth     AuthState
}

// ===== Функции обновления =====

// SetSchedule заменяет расписание целиком
func SetSchedule(s State, schedule *client.Schedule) State {
	days := make([]client.Day, 0, len(schedule.Days))
	for _, d := range schedule.Days {
		if d == nil {
			continue
		}
		days = append(days, copyDay(*d))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	s.Schedule = ScheduleState{
		StartDate: schedule.StartDate,
		EndDate:   schedule.EndDate,
		Days:      days,
		Loaded:    true,
	}
	return s
}

// UpsertSlot заменяет слот с тем же ключом, новый слот добавляется в свой день
func UpsertSlot(s State, slot client.Slot) State {
	days := make([]client.Day, len(s.Schedule.Days))
	copy(days, s.Schedule.Days)

	dayIdx := -1
	for i := range days {
		if days[i].Date == slot.Date {
			dayIdx = i
			break
		}
	}
	if dayIdx < 0 {
		if !inRange(s.Schedule, slot.Date) {
			return s
		}
		days = append(days, client.Day{Date: slot.Date})
		sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
		for i := range days {
			if days[i].Date == slot.Date {
				dayIdx = i
				break
			}
		}
	}

	day := copyDay(days[dayIdx])
	replaced := false
	for i, existing := range day.Slots {
		if sameSlot(existing, &slot) {
			day.Slots[i] = &slot
			replaced = true
			break
		}
	}
	if !replaced {
		day.Slots = append(day.Slots, &slot)
		sort.Slice(day.Slots, func(i, j int) bool { return day.Slots[i].StartTime < day.Slots[j].StartTime })
	}
	days[dayIdx] = day

	s.Schedule.Days = days
	return s
}

// RemoveSlot удаляет слот по ключу
func RemoveSlot(s State, slotKey string) State {
	days := make([]client.Day, len(s.Schedule.Days))
	for i, d := range s.Schedule.Days {
		day := client.Day{Date: d.Date, Slots: make([]*client.Slot, 0, len(d.Slots))}
		for _, slot := range d.Slots {
			if slot.SlotKey != slotKey {
				day.Slots = append(day.Slots, slot)
			}
		}
		days[i] = day
	}
	s.Schedule.Days = days
	return s
}

// ReserveSlot оптимистично занимает одно место в слоте
func ReserveSlot(s State, slotKey string) State {
	slot, ok := FindSlot(s, slotKey)
	if !ok {
		return s
	}
	slot.CurrentBookings++
	recompute(&slot)
	return UpsertSlot(s, slot)
}

// ReleaseSlot возвращает место в слот после отмены
func ReleaseSlot(s State, slotKey string) State {
	slot, ok := FindSlot(s, slotKey)
	if !ok || slot.CurrentBookings == 0 {
		return s
	}
	slot.CurrentBookings--
	recompute(&slot)
	return UpsertSlot(s, slot)
}

// SetBookings заменяет список бронирований
func SetBookings(s State, bookings []*client.Booking) State {
	items := make([]client.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil {
			items = append(items, *b)
		}
	}
	sortBookings(items)
	s.Bookings = BookingsState{Items: items}
	return s
}

// UpsertBooking добавляет или заменяет бронирование по id
func UpsertBooking(s State, booking client.Booking) State {
	items := make([]client.Booking, 0, len(s.Bookings.Items)+1)
	replaced := false
	for _, b := range s.Bookings.Items {
		if b.ID == booking.ID {
			items = append(items, booking)
			replaced = true
			continue
		}
		items = append(items, b)
	}
	if !replaced {
		items = append(items, booking)
	}
	sortBookings(items)
	s.Bookings = BookingsState{Items: items}
	return s
}

func RemoveBooking(s State, id int64) State {
	items := make([]client.Booking, 0, len(s.Bookings.Items))
	for _, b := range s.Bookings.Items {
		if b.ID != id {
			items = append(items, b)
		}
	}
	s.Bookings = BookingsState{Items: items}
	return s
}

// MarkCancelled оптимистично переводит бронирование в cancelled
func MarkCancelled(s State, id int64) State {
	b, ok := FindBooking(s, id)
	if !ok {
		return s
	}
	b.Status = "cancelled"
	return UpsertBooking(s, b)
}

func SelectSlot(s State, date, slotKey string) State {
	s.UI.SelectedDate = date
	s.UI.SelectedSlotKey = slotKey
	return s
}

func SetLoading(s State, loading bool) State {
	s.UI.Loading = loading
	return s
}

// SetError сохраняет текст последней ошибки, nil очищает
func SetError(s State, err error) State {
	if err == nil {
		s.UI.LastError = ""
	} else {
		s.UI.LastError = err.Error()
	}
	return s
}

func SetAuth(s State, userID int64, role string) State {
	s.Auth = AuthState{UserID: userID, Role: role}
	return s
}

// ===== Селекторы =====

// FindSlot копия слота по ключу
func FindSlot(s State, slotKey string) (client.Slot, bool) {
	for _, d := range s.Schedule.Days {
		for _, slot := range d.Slots {
			if slot.SlotKey == slotKey {
				return *slot, true
			}
		}
	}
	return client.Slot{}, false
}

func FindBooking(s State, id int64) (client.Booking, bool) {
	for _, b := range s.Bookings.Items {
		if b.ID == id {
			return b, true
		}
	}
	return client.Booking{}, false
}

// Day слоты даты, nil если дата не загружена
func Day(s State, date string) *client.Day {
	for i := range s.Schedule.Days {
		if s.Schedule.Days[i].Date == date {
			d := copyDay(s.Schedule.Days[i])
			return &d
		}
	}
	return nil
}

// BookingsForSlot активные бронирования слота
func BookingsForSlot(s State, slotKey string) []client.Booking {
	var out []client.Booking
	for _, b := range s.Bookings.Items {
		if b.SlotKey == slotKey && !b.IsCancelled() {
			out = append(out, b)
		}
	}
	return out
}

// ===== Вспомогательные =====

func copyDay(d client.Day) client.Day {
	slots := make([]*client.Slot, len(d.Slots))
	copy(slots, d.Slots)
	return client.Day{Date: d.Date, Slots: slots}
}

func sameSlot(a, b *client.Slot) bool {
	if a.ID != 0 && b.ID != 0 {
		return a.ID == b.ID
	}
	return a.SlotKey == b.SlotKey
}

func inRange(sch ScheduleState, date string) bool {
	if !sch.Loaded {
		return false
	}
	return date >= sch.StartDate && date <= sch.EndDate
}

// recompute пересчитывает производные поля после изменения счетчика
func recompute(slot *client.Slot) {
	slot.Remaining = slot.MaxBookings - slot.CurrentBookings
	if slot.Remaining < 0 {
		slot.Remaining = 0
	}
	slot.Available = !slot.IsBlocked && !slot.IsLocked && slot.Remaining > 0
}

func sortBookings(items []client.Booking) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].BookingDate != items[j].BookingDate {
			return items[i].BookingDate < items[j].BookingDate
		}
		if items[i].StartTime != items[j].StartTime {
			return items[i].StartTime < items[j].StartTime
		}
		return items[i].ID < items[j].ID
	})
}
