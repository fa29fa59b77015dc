package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-DetailingService/pkg/client"
)

// ScheduleSource чтение расписания
type ScheduleSource interface {
	GetSchedule(ctx context.Context, start, end string) (*client.Schedule, error)
}

// BookingSource чтение бронирований (администратор)
type BookingSource interface {
	ListBookings(ctx context.Context, f client.ListFilter) ([]*client.Booking, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Config диапазон и частота опроса
type Config struct {
	StartDate string
	EndDate   string
	Interval  time.Duration
}

// Poller Listener поверх периодического опроса API
// Каждый проход сравнивает новый снимок с предыдущим и рассылает разницу.
// Первый проход только запоминает снимок
type Poller struct {
	*hub

	schedule ScheduleSource
	bookings BookingSource // nil - бронирования не отслеживаются
	cfg      Config
	logger   Logger

	mu           sync.Mutex
	slots        map[string]client.Slot
	bookingsSnap map[int64]client.Booking
	primed       bool

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewPoller создает опрос расписания, bookings может быть nil
func NewPoller(schedule ScheduleSource, bookings BookingSource, cfg Config, logger Logger) *Poller {
	return &Poller{
		hub:      newHub(),
		schedule: schedule,
		bookings: bookings,
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start запускает опрос в фоне, первый проход сразу
func (p *Poller) Start(ctx context.Context) {
	if p.cfg.Interval <= 0 {
		p.logger.Info("Poller: disabled")
		return
	}
	p.logger.Info("Poller: started, range=%s..%s, interval=%s", p.cfg.StartDate, p.cfg.EndDate, p.cfg.Interval)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		p.pollLogged(ctx)
		for {
			select {
			case <-ticker.C:
				p.pollLogged(ctx)
			case <-ctx.Done():
				return
			case <-p.done:
				p.logger.Info("Poller: stopped")
				return
			}
		}
	}()
}

// Stop останавливает опрос и ждет завершения текущего прохода
func (p *Poller) Stop() {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *Poller) pollLogged(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Interval)
	defer cancel()

	n, err := p.Poll(ctx)
	if err != nil {
		p.logger.Error("Poller: poll failed: %v", err)
		return
	}
	if n > 0 {
		p.logger.Info("Poller: %d changes", n)
	}
}

// Poll один проход, возвращает число разосланных изменений
// При ошибке снимок не обновляется, изменения будут найдены следующим проходом
func (p *Poller) Poll(ctx context.Context) (int, error) {
	schedule, err := p.schedule.GetSchedule(ctx, p.cfg.StartDate, p.cfg.EndDate)
	if err != nil {
		return 0, err
	}

	var bookings []*client.Booking
	if p.bookings != nil {
		bookings, err = p.bookings.ListBookings(ctx, client.ListFilter{StartDate: p.cfg.StartDate, EndDate: p.cfg.EndDate})
		if err != nil {
			return 0, err
		}
	}

	slots := indexSlots(schedule)
	booked := indexBookings(bookings)

	p.mu.Lock()
	var changes []Change
	if p.primed {
		changes = append(diffSlots(p.slots, slots), diffBookings(p.bookingsSnap, booked)...)
	}
	p.slots = slots
	p.bookingsSnap = booked
	p.primed = true
	p.mu.Unlock()

	for _, c := range changes {
		p.dispatch(c)
	}
	return len(changes), nil
}

func indexSlots(schedule *client.Schedule) map[string]client.Slot {
	out := make(map[string]client.Slot)
	if schedule == nil {
		return out
	}
	for _, d := range schedule.Days {
		if d == nil {
			continue
		}
		for _, s := range d.Slots {
			if s != nil {
				out[s.SlotKey] = *s
			}
		}
	}
	return out
}

func indexBookings(bookings []*client.Booking) map[int64]client.Booking {
	out := make(map[int64]client.Booking, len(bookings))
	for _, b := range bookings {
		if b != nil {
			out[b.ID] = *b
		}
	}
	return out
}

// diffSlots изменения в порядке slot_key
func diffSlots(prev, next map[string]client.Slot) []Change {
	var changes []Change
	for key, n := range next {
		o, ok := prev[key]
		switch {
		case !ok:
			changes = append(changes, Change{Table: TableSlots, EventType: EventInsert, Key: key, NewSlot: &n})
		case !slotEqual(o, n):
			changes = append(changes, Change{Table: TableSlots, EventType: EventUpdate, Key: key, OldSlot: &o, NewSlot: &n})
		}
	}
	for key, o := range prev {
		if _, ok := next[key]; !ok {
			changes = append(changes, Change{Table: TableSlots, EventType: EventDelete, Key: key, OldSlot: &o})
		}
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
	return changes
}

func diffBookings(prev, next map[int64]client.Booking) []Change {
	var changes []Change
	for id, n := range next {
		o, ok := prev[id]
		switch {
		case !ok:
			changes = append(changes, Change{Table: TableBookings, EventType: EventInsert, Key: n.Reference, NewBooking: &n})
		case o.Status != n.Status || !o.UpdatedAt.Equal(n.UpdatedAt):
			changes = append(changes, Change{Table: TableBookings, EventType: EventUpdate, Key: n.Reference, OldBooking: &o, NewBooking: &n})
		}
	}
	for id, o := range prev {
		if _, ok := next[id]; !ok {
			changes = append(changes, Change{Table: TableBookings, EventType: EventDelete, Key: o.Reference, OldBooking: &o})
		}
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
	return changes
}

func slotEqual(a, b client.Slot) bool {
	return a.ID == b.ID &&
		a.CurrentBookings == b.CurrentBookings &&
		a.MaxBookings == b.MaxBookings &&
		a.IsBlocked == b.IsBlocked &&
		a.IsLocked == b.IsLocked &&
		a.Available == b.Available &&
		a.EndTime == b.EndTime
}
