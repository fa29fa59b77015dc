package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/pkg/client"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
)

type fakeSchedule struct {
	mu        sync.Mutex
	schedules []*client.Schedule
	err       error
	calls     int
}

func (f *fakeSchedule) GetSchedule(ctx context.Context, start, end string) (*client.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls
	if idx >= len(f.schedules) {
		idx = len(f.schedules) - 1
	}
	f.calls++
	return f.schedules[idx], nil
}

type fakeBookings struct {
	lists [][]*client.Booking
	calls int
}

func (f *fakeBookings) ListBookings(ctx context.Context, fl client.ListFilter) ([]*client.Booking, error) {
	idx := f.calls
	if idx >= len(f.lists) {
		idx = len(f.lists) - 1
	}
	f.calls++
	return f.lists[idx], nil
}

func scheduleOf(slots ...*client.Slot) *client.Schedule {
	return &client.Schedule{
		StartDate: "2025-06-02",
		EndDate:   "2025-06-08",
		Days:      []*client.Day{{Date: "2025-06-02", Slots: slots}},
	}
}

func mkSlot(start string, current int) *client.Slot {
	return &client.Slot{
		ID:              int64(len(start)),
		Date:            "2025-06-02",
		StartTime:       start,
		SlotKey:         "2025-06-02T" + start,
		MaxBookings:     2,
		CurrentBookings: current,
		Available:       current < 2,
	}
}

func TestPoll_FirstPassOnlyPrimes(t *testing.T) {
	src := &fakeSchedule{schedules: []*client.Schedule{scheduleOf(mkSlot("09:00", 0))}}
	p := NewPoller(src, nil, Config{StartDate: "2025-06-02", EndDate: "2025-06-08"}, logger.Discard())

	var got []Change
	p.OnChange(nil, func(c Change) { got = append(got, c) })

	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, got)
}

func TestPoll_DiffsSlots(t *testing.T) {
	src := &fakeSchedule{schedules: []*client.Schedule{
		scheduleOf(mkSlot("09:00", 0), mkSlot("10:00", 0)),
		scheduleOf(mkSlot("09:00", 1), mkSlot("11:00", 0)),
	}}
	p := NewPoller(src, nil, Config{StartDate: "2025-06-02", EndDate: "2025-06-08"}, logger.Discard())

	var got []Change
	p.OnChange(ForTable(TableSlots), func(c Change) { got = append(got, c) })

	_, err := p.Poll(context.Background())
	require.NoError(t, err)
	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Len(t, got, 3)

	assert.Equal(t, EventUpdate, got[0].EventType)
	assert.Equal(t, "2025-06-02T09:00", got[0].Key)
	assert.Equal(t, 0, got[0].OldSlot.CurrentBookings)
	assert.Equal(t, 1, got[0].NewSlot.CurrentBookings)

	assert.Equal(t, EventDelete, got[1].EventType)
	assert.Nil(t, got[1].NewSlot)

	assert.Equal(t, EventInsert, got[2].EventType)
	assert.Nil(t, got[2].OldSlot)
}

func TestPoll_PredicateAndUnsubscribe(t *testing.T) {
	src := &fakeSchedule{schedules: []*client.Schedule{
		scheduleOf(mkSlot("09:00", 0), mkSlot("10:00", 0)),
		scheduleOf(mkSlot("09:00", 1), mkSlot("10:00", 1)),
		scheduleOf(mkSlot("09:00", 2), mkSlot("10:00", 2)),
	}}
	p := NewPoller(src, nil, Config{}, logger.Discard())

	var only, all int
	unsubscribe := p.OnChange(All(ForSlot("2025-06-02T10:00"), ForEvents(EventUpdate)), func(Change) { only++ })
	p.OnChange(nil, func(Change) { all++ })

	_, _ = p.Poll(context.Background())
	_, _ = p.Poll(context.Background())
	assert.Equal(t, 1, only)
	assert.Equal(t, 2, all)

	unsubscribe()
	_, _ = p.Poll(context.Background())
	assert.Equal(t, 1, only)
	assert.Equal(t, 4, all)
}

func TestPoll_Bookings(t *testing.T) {
	src := &fakeSchedule{schedules: []*client.Schedule{scheduleOf()}}
	bk := &fakeBookings{lists: [][]*client.Booking{
		{{ID: 1, Reference: "DT-1", SlotKey: "2025-06-02T09:00", Status: "pending"}},
		{
			{ID: 1, Reference: "DT-1", SlotKey: "2025-06-02T09:00", Status: "cancelled"},
			{ID: 2, Reference: "DT-2", SlotKey: "2025-06-02T10:00", Status: "pending"},
		},
	}}
	p := NewPoller(src, bk, Config{}, logger.Discard())

	var got []Change
	p.OnChange(ForTable(TableBookings), func(c Change) { got = append(got, c) })

	_, _ = p.Poll(context.Background())
	_, err := p.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "DT-1", got[0].Key)
	assert.Equal(t, EventUpdate, got[0].EventType)
	assert.Equal(t, "cancelled", got[0].NewBooking.Status)
	assert.Equal(t, EventInsert, got[1].EventType)

	var slotHits int
	p.OnChange(ForSlot("2025-06-02T10:00"), func(Change) { slotHits++ })
	p.dispatch(got[1])
	assert.Equal(t, 1, slotHits)
}

func TestPoll_ErrorKeepsSnapshot(t *testing.T) {
	src := &fakeSchedule{schedules: []*client.Schedule{scheduleOf(mkSlot("09:00", 0))}}
	p := NewPoller(src, nil, Config{}, logger.Discard())

	_, err := p.Poll(context.Background())
	require.NoError(t, err)

	src.err = errors.New("unavailable")
	_, err = p.Poll(context.Background())
	require.Error(t, err)

	src.err = nil
	src.schedules = []*client.Schedule{scheduleOf(mkSlot("09:00", 1))}
	src.calls = 0

	var got int
	p.OnChange(nil, func(Change) { got++ })
	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, got)
}

func TestStartStop(t *testing.T) {
	src := &fakeSchedule{schedules: []*client.Schedule{
		scheduleOf(mkSlot("09:00", 0)),
		scheduleOf(mkSlot("09:00", 1)),
	}}
	p := NewPoller(src, nil, Config{Interval: 10 * time.Millisecond}, logger.Discard())

	var changes atomic.Int32
	p.OnChange(nil, func(Change) { changes.Add(1) })

	p.Start(context.Background())
	assert.Eventually(t, func() bool { return changes.Load() == 1 }, time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()
}

func TestStart_DisabledWithoutInterval(t *testing.T) {
	src := &fakeSchedule{schedules: []*client.Schedule{scheduleOf()}}
	p := NewPoller(src, nil, Config{}, logger.Discard())

	p.Start(context.Background())
	p.Stop()

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Zero(t, src.calls)
}
