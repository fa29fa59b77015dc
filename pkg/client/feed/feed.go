package feed

import (
	"sync"

	"github.com/m04kA/SMC-DetailingService/pkg/client"
)

// EventType тип изменения строки
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Таблицы, изменения которых отслеживаются
const (
	TableSlots    = "slots"
	TableBookings = "bookings"
)

// Change одно изменение строки, Old пуст для INSERT, New пуст для DELETE
type Change struct {
	Table     string
	EventType EventType
	Key       string // slot_key для слотов, reference для бронирований

	OldSlot    *client.Slot
	NewSlot    *client.Slot
	OldBooking *client.Booking
	NewBooking *client.Booking
}

// Predicate фильтр изменений
type Predicate func(Change) bool

type Handler func(Change)

// Listener источник изменений, независимый от транспорта
type Listener interface {
	// OnChange регистрирует обработчик изменений, подходящих под predicate (nil - все)
	// Возвращает функцию отписки
	OnChange(predicate Predicate, handler Handler) func()
}

// ForTable изменения одной таблицы
func ForTable(table string) Predicate {
	return func(c Change) bool { return c.Table == table }
}

// ForEvents изменения указанных типов
func ForEvents(types ...EventType) Predicate {
	return func(c Change) bool {
		for _, t := range types {
			if c.EventType == t {
				return true
			}
		}
		return false
	}
}

// ForSlot изменения одного слота и бронирований на него
func ForSlot(slotKey string) Predicate {
	return func(c Change) bool {
		switch c.Table {
		case TableSlots:
			return c.Key == slotKey
		case TableBookings:
			return (c.NewBooking != nil && c.NewBooking.SlotKey == slotKey) ||
				(c.OldBooking != nil && c.OldBooking.SlotKey == slotKey)
		}
		return false
	}
}

// All все предикаты сразу
func All(predicates ...Predicate) Predicate {
	return func(c Change) bool {
		for _, p := range predicates {
			if p != nil && !p(c) {
				return false
			}
		}
		return true
	}
}

type subscription struct {
	predicate Predicate
	handler   Handler
}

// hub рассылает изменения подписчикам, общий для реализаций Listener
type hub struct {
	mu     sync.RWMutex
	subs   map[int]subscription
	nextID int
}

func newHub() *hub {
	return &hub{subs: make(map[int]subscription)}
}

func (h *hub) OnChange(predicate Predicate, handler Handler) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = subscription{predicate: predicate, handler: handler}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *hub) dispatch(c Change) {
	h.mu.RLock()
	matched := make([]Handler, 0, len(h.subs))
	for _, s := range h.subs {
		if s.predicate == nil || s.predicate(c) {
			matched = append(matched, s.handler)
		}
	}
	h.mu.RUnlock()

	for _, handler := range matched {
		handler(c)
	}
}
