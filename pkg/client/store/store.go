package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/m04kA/SMC-DetailingService/pkg/client"
)

// API операции клиента, которые использует Store
type API interface {
	GetSchedule(ctx context.Context, start, end string) (*client.Schedule, error)
	AcquireLock(ctx context.Context, slotKey string) (*client.Lock, error)
	ReleaseLock(ctx context.Context, slotKey string) error
	CreateBooking(ctx context.Context, in *client.CreateBookingInput) (*client.CreateBookingResult, error)
	CancelBooking(ctx context.Context, id int64, reason *string) (*client.CancelResult, error)
	UserBookings(ctx context.Context, userID int64, status string) ([]*client.Booking, error)
	ListBookings(ctx context.Context, f client.ListFilter) ([]*client.Booking, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Listener получает новый снимок после каждого изменения
type Listener func(State)

// Store владеет состоянием клиента и оповещает подписчиков
// Создается в точке сборки и передается явно, глобального экземпляра нет
type Store struct {
	api API
	log Logger

	mu    sync.RWMutex
	state State

	subsMu sync.RWMutex
	subs   map[int]Listener
	nextID int
}

// New создает хранилище с пустым состоянием
func New(api API, auth AuthState, log Logger) *Store {
	return &Store{
		api:   api,
		log:   log,
		state: State{Auth: auth},
		subs:  make(map[int]Listener),
	}
}

// State текущий снимок
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe регистрирует подписчика, возвращает функцию отписки
func (s *Store) Subscribe(fn Listener) func() {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Update применяет функцию обновления и оповещает подписчиков
func (s *Store) Update(fn func(State) State) State {
	s.mu.Lock()
	s.state = fn(s.state)
	next := s.state
	s.mu.Unlock()

	s.notify(next)
	return next
}

func (s *Store) notify(state State) {
	s.subsMu.RLock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// ErrRolledBack обертка ошибки коммита после отката
var ErrRolledBack = errors.New("store: optimistic update rolled back")

// Optimistic применяет apply сразу, затем вызывает commit
// При ошибке commit состояние возвращается к снимку, сделанному до apply.
// Изменения, внесенные другими вызовами между apply и откатом, теряются вместе со снимком
func (s *Store) Optimistic(ctx context.Context, apply func(State) State, commit func(ctx context.Context) error) error {
	s.mu.Lock()
	pre := s.state
	s.state = apply(s.state)
	s.state.UI.Pending++
	next := s.state
	s.mu.Unlock()
	s.notify(next)

	err := commit(ctx)

	s.mu.Lock()
	if err != nil {
		pending := s.state.UI.Pending - 1
		s.state = pre
		s.state.UI.Pending = pending
		s.state = SetError(s.state, err)
	} else {
		s.state.UI.Pending--
	}
	next = s.state
	s.mu.Unlock()
	s.notify(next)

	if err != nil {
		return fmt.Errorf("%w: %w", ErrRolledBack, err)
	}
	return nil
}

// ===== Загрузка =====

// LoadSchedule загружает расписание диапазона
func (s *Store) LoadSchedule(ctx context.Context, start, end string) error {
	s.Update(func(st State) State { return SetLoading(st, true) })

	schedule, err := s.api.GetSchedule(ctx, start, end)
	if err != nil {
		s.log.Error("store: failed to load schedule %s..%s: %v", start, end, err)
		s.Update(func(st State) State { return SetError(SetLoading(st, false), err) })
		return err
	}

	s.Update(func(st State) State {
		return SetError(SetLoading(SetSchedule(st, schedule), false), nil)
	})
	return nil
}

// Refresh перечитывает уже загруженный диапазон
func (s *Store) Refresh(ctx context.Context) error {
	sch := s.State().Schedule
	if !sch.Loaded {
		return nil
	}
	return s.LoadSchedule(ctx, sch.StartDate, sch.EndDate)
}

// LoadBookings загружает бронирования: все за диапазон для администратора, свои для клиента, ничего для анонима
func (s *Store) LoadBookings(ctx context.Context, start, end string) error {
	st := s.State()

	var (
		bookings []*client.Booking
		err      error
	)
	switch {
	case st.Auth.UserID <= 0:
		return nil
	case st.Auth.IsAdmin():
		bookings, err = s.api.ListBookings(ctx, client.ListFilter{StartDate: start, EndDate: end})
	default:
		bookings, err = s.api.UserBookings(ctx, st.Auth.UserID, "")
	}
	if err != nil {
		s.log.Error("store: failed to load bookings: %v", err)
		s.Update(func(st State) State { return SetError(st, err) })
		return err
	}

	s.Update(func(st State) State { return SetBookings(st, bookings) })
	return nil
}

// ===== Действия =====

// HoldSlot получает блокировку слота под оформление
// Конфликт перечитывает расписание, чтобы показать актуальную доступность
func (s *Store) HoldSlot(ctx context.Context, slotKey string) (*client.Lock, error) {
	lock, err := s.api.AcquireLock(ctx, slotKey)
	if err != nil {
		s.onConflict(ctx, err)
		s.Update(func(st State) State { return SetError(st, err) })
		return nil, err
	}

	s.Update(func(st State) State {
		slot, ok := FindSlot(st, slotKey)
		if ok {
			st = SelectSlot(st, slot.Date, slotKey)
		}
		return SetError(st, nil)
	})
	return lock, nil
}

// ReleaseHold снимает блокировку и сбрасывает выбор
func (s *Store) ReleaseHold(ctx context.Context, slotKey string) error {
	if err := s.api.ReleaseLock(ctx, slotKey); err != nil {
		return err
	}
	s.Update(func(st State) State { return SelectSlot(st, "", "") })
	return nil
}

// Book оформляет бронирование с оптимистичным занятием места в слоте
func (s *Store) Book(ctx context.Context, in *client.CreateBookingInput) (*client.CreateBookingResult, error) {
	slotKey := in.SlotKey()

	var result *client.CreateBookingResult
	err := s.Optimistic(ctx,
		func(st State) State { return ReserveSlot(st, slotKey) },
		func(ctx context.Context) error {
			var err error
			result, err = s.api.CreateBooking(ctx, in)
			return err
		},
	)
	if err != nil {
		s.onConflict(ctx, err)
		s.Update(func(st State) State { return SetError(st, err) })
		return nil, err
	}

	if result.Booking != nil {
		s.Update(func(st State) State {
			return SelectSlot(UpsertBooking(st, *result.Booking), "", "")
		})
	}
	return result, nil
}

// Cancel отменяет бронирование, место в слоте возвращается сразу
func (s *Store) Cancel(ctx context.Context, id int64, reason *string) (*client.CancelResult, error) {
	booking, known := FindBooking(s.State(), id)

	var result *client.CancelResult
	err := s.Optimistic(ctx,
		func(st State) State {
			if known && !booking.IsCancelled() {
				st = ReleaseSlot(st, booking.SlotKey)
			}
			return MarkCancelled(st, id)
		},
		func(ctx context.Context) error {
			var err error
			result, err = s.api.CancelBooking(ctx, id, reason)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	if result.Booking != nil {
		s.Update(func(st State) State { return UpsertBooking(st, *result.Booking) })
	}
	return result, nil
}

// onConflict перечитывает расписание после slot_unavailable
func (s *Store) onConflict(ctx context.Context, err error) {
	if !errors.Is(err, client.ErrSlotUnavailable) {
		return
	}
	s.log.Warn("store: slot conflict, refreshing schedule")
	if refreshErr := s.Refresh(ctx); refreshErr != nil {
		s.log.Error("store: failed to refresh schedule after conflict: %v", refreshErr)
	}
}
