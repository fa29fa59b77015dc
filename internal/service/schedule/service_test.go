package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	slotRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-DetailingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

type fakeSlotRepo struct {
	createFn        func(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
	createMissingFn func(ctx context.Context, slots []*domain.Slot) (int, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.Slot, error)
	listFn          func(ctx context.Context, from, to time.Time) ([]*domain.Slot, error)
	overviewFn      func(ctx context.Context, from, to time.Time) ([]*domain.DayOverview, error)
	setBlockedFn    func(ctx context.Context, id int64, blocked bool, reason *string) (*domain.Slot, error)
	deleteFn        func(ctx context.Context, id int64) error
}

func (f fakeSlotRepo) Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	if f.createFn == nil {
		slot.ID = 1
		return slot, nil
	}
	return f.createFn(ctx, slot)
}

func (f fakeSlotRepo) CreateMissing(ctx context.Context, slots []*domain.Slot) (int, error) {
	if f.createMissingFn == nil {
		return len(slots), nil
	}
	return f.createMissingFn(ctx, slots)
}

func (f fakeSlotRepo) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	if f.getByIDFn == nil {
		return nil, slotRepo.ErrSlotNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f fakeSlotRepo) ListByRange(ctx context.Context, from, to time.Time) ([]*domain.Slot, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, from, to)
}

func (f fakeSlotRepo) Overview(ctx context.Context, from, to time.Time) ([]*domain.DayOverview, error) {
	if f.overviewFn == nil {
		return nil, nil
	}
	return f.overviewFn(ctx, from, to)
}

func (f fakeSlotRepo) SetBlocked(ctx context.Context, id int64, blocked bool, reason *string) (*domain.Slot, error) {
	if f.setBlockedFn == nil {
		return nil, slotRepo.ErrSlotNotFound
	}
	return f.setBlockedFn(ctx, id, blocked, reason)
}

func (f fakeSlotRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

type fakeScheduleRepo struct {
	template  domain.WeeklyTemplate
	overrides map[string]*domain.ScheduleOverride
	saved     []*domain.ScheduleOverride
	err       error
}

func (f *fakeScheduleRepo) GetTemplate(context.Context) (domain.WeeklyTemplate, error) {
	return f.template, f.err
}

func (f *fakeScheduleRepo) UpsertWorkingDay(_ context.Context, day *domain.WorkingDay) (*domain.WorkingDay, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.template == nil {
		f.template = domain.WeeklyTemplate{}
	}
	f.template[day.Weekday] = day
	return day, nil
}

func (f *fakeScheduleRepo) SetWeekdayWorking(_ context.Context, weekday time.Weekday, working bool) error {
	day, ok := f.template[weekday]
	if !ok {
		return errors.New("schedule.repository: working day not found")
	}
	day.IsWorkingDay = working
	return nil
}

func (f *fakeScheduleRepo) ListOverrides(context.Context, time.Time, time.Time) (map[string]*domain.ScheduleOverride, error) {
	return f.overrides, f.err
}

func (f *fakeScheduleRepo) UpsertOverride(_ context.Context, o *domain.ScheduleOverride) (*domain.ScheduleOverride, error) {
	f.saved = append(f.saved, o)
	return o, f.err
}

type fakeLocks struct {
	locked map[domain.SlotKey]bool
	err    error
}

func (f fakeLocks) ListActive(context.Context, []domain.SlotKey, time.Time) (map[domain.SlotKey]bool, error) {
	return f.locked, f.err
}

type recordingPublisher struct {
	events []domain.ChangeEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.ChangeEvent) error {
	p.events = append(p.events, ev)
	return nil
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

func newTestService(slots SlotRepository, sched ScheduleRepository, locks LockReader, pub EventPublisher) *Service {
	s := NewService(slots, sched, locks, pub, 0, logger.Discard())
	s.timeProvider = fixedTime{now: monday.Add(8 * time.Hour)}
	return s
}

func testSlot(id int64, date time.Time, start string, current, capacity int) *domain.Slot {
	st := types.MustTimeString(start)
	end, _ := st.AddMinutes(60)
	return &domain.Slot{
		ID:              id,
		Date:            date,
		StartTime:       st,
		EndTime:         end,
		DurationMinutes: 60,
		MaxBookings:     capacity,
		CurrentBookings: current,
	}
}

func TestService_GetSchedule(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	slots := fakeSlotRepo{listFn: func(context.Context, time.Time, time.Time) ([]*domain.Slot, error) {
		return []*domain.Slot{
			testSlot(1, monday, "09:00", 0, 1),
			testSlot(2, monday, "10:00", 1, 1),
			testSlot(3, monday, "11:00", 0, 1),
			testSlot(4, tuesday, "09:00", 0, 2),
		}, nil
	}}
	locks := fakeLocks{locked: map[domain.SlotKey]bool{"2025-06-02T11:00": true}}

	svc := newTestService(slots, &fakeScheduleRepo{}, locks, nil)
	resp, err := svc.GetSchedule(context.Background(), monday, tuesday)
	require.NoError(t, err)

	require.Len(t, resp.Days, 2)
	assert.Equal(t, "2025-06-02", resp.Days[0].Date)
	require.Len(t, resp.Days[0].Slots, 3)
	assert.True(t, resp.Days[0].Slots[0].Available)
	assert.False(t, resp.Days[0].Slots[1].Available, "full slot")
	assert.False(t, resp.Days[0].Slots[2].Available, "locked slot")
	assert.True(t, resp.Days[0].Slots[2].IsLocked)
	assert.True(t, resp.Days[1].Slots[0].Available)
	assert.Equal(t, 2, resp.Days[1].Slots[0].Remaining)
}

func TestService_GetSchedule_LockStoreDown(t *testing.T) {
	slots := fakeSlotRepo{listFn: func(context.Context, time.Time, time.Time) ([]*domain.Slot, error) {
		return []*domain.Slot{testSlot(1, monday, "09:00", 0, 1)}, nil
	}}

	svc := newTestService(slots, &fakeScheduleRepo{}, fakeLocks{err: errors.New("down")}, nil)
	resp, err := svc.GetSchedule(context.Background(), monday, monday)
	require.NoError(t, err)
	assert.True(t, resp.Days[0].Slots[0].Available)
}

func TestService_GetSchedule_InvalidRange(t *testing.T) {
	svc := newTestService(fakeSlotRepo{}, &fakeScheduleRepo{}, nil, nil)

	_, err := svc.GetSchedule(context.Background(), monday, monday.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = svc.GetSchedule(context.Background(), monday, monday.AddDate(0, 0, DefaultMaxRangeDays))
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = svc.GetSchedule(context.Background(), monday, monday.AddDate(0, 0, DefaultMaxRangeDays-1))
	assert.NoError(t, err)
}

func TestService_CreateWeeklySlots(t *testing.T) {
	var got []*domain.Slot
	slots := fakeSlotRepo{createMissingFn: func(_ context.Context, s []*domain.Slot) (int, error) {
		got = s
		return len(s) - 1, nil
	}}
	pub := &recordingPublisher{}

	svc := newTestService(slots, &fakeScheduleRepo{template: mondayTemplate()}, nil, pub)
	resp, err := svc.CreateWeeklySlots(context.Background(), &models.CreateWeeklySlotsRequest{
		StartDate: monday,
		EndDate:   monday.AddDate(0, 0, 6),
	})
	require.NoError(t, err)

	assert.Len(t, got, 4)
	assert.Equal(t, 4, resp.Generated)
	assert.Equal(t, 3, resp.Created)
	assert.Equal(t, 1, resp.Skipped)
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.TableSlots, pub.events[0].Table)
}

func TestService_CreateSlot(t *testing.T) {
	svc := newTestService(fakeSlotRepo{}, &fakeScheduleRepo{}, nil, nil)

	resp, err := svc.CreateSlot(context.Background(), &models.CreateSlotRequest{
		Date:            monday,
		StartTime:       "10:00",
		DurationMinutes: 90,
		MaxBookings:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, "11:30", resp.EndTime)
	assert.True(t, resp.Available)

	_, err = svc.CreateSlot(context.Background(), &models.CreateSlotRequest{
		Date:            monday.AddDate(0, 0, -1),
		StartTime:       "10:00",
		DurationMinutes: 90,
		MaxBookings:     2,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	dup := newTestService(fakeSlotRepo{createFn: func(context.Context, *domain.Slot) (*domain.Slot, error) {
		return nil, slotRepo.ErrSlotExists
	}}, &fakeScheduleRepo{}, nil, nil)
	_, err = dup.CreateSlot(context.Background(), &models.CreateSlotRequest{
		Date: monday, StartTime: "10:00", DurationMinutes: 60, MaxBookings: 1,
	})
	assert.ErrorIs(t, err, ErrSlotExists)
}

func TestService_DeleteSlot(t *testing.T) {
	t.Run("unbooked slot is deleted", func(t *testing.T) {
		svc := newTestService(fakeSlotRepo{}, &fakeScheduleRepo{}, nil, nil)
		resp, err := svc.DeleteSlot(context.Background(), 7)
		require.NoError(t, err)
		assert.True(t, resp.Deleted)
		assert.False(t, resp.SoftBlocked)
	})

	t.Run("booked slot is soft-blocked", func(t *testing.T) {
		var blockedWith *string
		slots := fakeSlotRepo{
			deleteFn: func(context.Context, int64) error { return slotRepo.ErrSlotInUse },
			getByIDFn: func(context.Context, int64) (*domain.Slot, error) {
				return testSlot(7, monday, "09:00", 1, 1), nil
			},
			setBlockedFn: func(_ context.Context, id int64, blocked bool, reason *string) (*domain.Slot, error) {
				blockedWith = reason
				s := testSlot(id, monday, "09:00", 1, 1)
				s.IsBlocked = blocked
				s.BlockReason = reason
				return s, nil
			},
		}
		svc := newTestService(slots, &fakeScheduleRepo{}, nil, nil)

		resp, err := svc.DeleteSlot(context.Background(), 7)
		require.NoError(t, err)
		assert.False(t, resp.Deleted)
		assert.True(t, resp.SoftBlocked)
		require.NotNil(t, blockedWith)
		assert.True(t, resp.Slot.IsBlocked)
	})

	t.Run("missing slot", func(t *testing.T) {
		svc := newTestService(fakeSlotRepo{deleteFn: func(context.Context, int64) error {
			return slotRepo.ErrSlotNotFound
		}}, &fakeScheduleRepo{}, nil, nil)
		_, err := svc.DeleteSlot(context.Background(), 7)
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})
}

func TestService_ToggleWorkingDay(t *testing.T) {
	sched := &fakeScheduleRepo{template: mondayTemplate()}
	svc := newTestService(fakeSlotRepo{}, sched, nil, nil)

	wd := time.Tuesday
	resp, err := svc.ToggleWorkingDay(context.Background(), &models.ToggleWorkingDayRequest{Weekday: &wd, IsWorkingDay: true})
	require.NoError(t, err)
	assert.True(t, resp.IsWorkingDay)
	assert.True(t, sched.template[time.Tuesday].IsWorkingDay)

	date := monday.AddDate(0, 0, 7)
	resp, err = svc.ToggleWorkingDay(context.Background(), &models.ToggleWorkingDayRequest{Date: &date, IsWorkingDay: false})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-09", *resp.Date)
	require.Len(t, sched.saved, 1)
	assert.False(t, sched.saved[0].IsWorkingDay)

	_, err = svc.ToggleWorkingDay(context.Background(), &models.ToggleWorkingDayRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_UpsertTemplateRejectsMalformed(t *testing.T) {
	svc := newTestService(fakeSlotRepo{}, &fakeScheduleRepo{}, nil, nil)

	_, err := svc.UpsertTemplate(context.Background(), &models.UpdateTemplateRequest{
		Weekday:             time.Monday,
		IsWorkingDay:        true,
		StartTime:           "17:00",
		EndTime:             "09:00",
		SlotDurationMinutes: 60,
		MaxSlotsPerHour:     1,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
