package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/schedule"
	slotRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-DetailingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-DetailingService/pkg/ptr"
)

// DefaultMaxRangeDays максимальная длина запрашиваемого диапазона
const DefaultMaxRangeDays = 62

const inUseBlockReason = "deleted by admin: slot has bookings"

// Service сервис каталога слотов
type Service struct {
	slotRepo     SlotRepository
	scheduleRepo ScheduleRepository
	locks        LockReader
	publisher    EventPublisher
	maxRangeDays int
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса каталога слотов
func NewService(
	slotRepo SlotRepository,
	scheduleRepo ScheduleRepository,
	locks LockReader,
	publisher EventPublisher,
	maxRangeDays int,
	logger Logger,
) *Service {
	if maxRangeDays <= 0 {
		maxRangeDays = DefaultMaxRangeDays
	}
	return &Service{
		slotRepo:     slotRepo,
		scheduleRepo: scheduleRepo,
		locks:        locks,
		publisher:    publisher,
		maxRangeDays: maxRangeDays,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// GetSchedule возвращает сохраненные слоты диапазона, сгруппированные по датам
// Доступность слота: есть места, не заблокирован, нет активной блокировки, дата не в прошлом
func (s *Service) GetSchedule(ctx context.Context, from, to time.Time) (*models.ScheduleResponse, error) {
	s.logger.Info("GetSchedule: range %s..%s", from.Format(domain.DateFormat), to.Format(domain.DateFormat))

	from, to, err := s.validateRange(from, to)
	if err != nil {
		return nil, err
	}

	slots, err := s.slotRepo.ListByRange(ctx, from, to)
	if err != nil {
		s.logger.Error("GetSchedule: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetSchedule - list slots: %v", ErrInternal, err)
	}

	now := s.timeProvider.Now()
	locked := s.activeLocks(ctx, slots, now)

	resp := &models.ScheduleResponse{
		StartDate: from.Format(domain.DateFormat),
		EndDate:   to.Format(domain.DateFormat),
		Days:      make([]*models.DayResponse, 0),
	}

	var current *models.DayResponse
	for _, slot := range slots {
		date := slot.Date.Format(domain.DateFormat)
		if current == nil || current.Date != date {
			current = &models.DayResponse{Date: date, Slots: make([]*models.SlotResponse, 0)}
			resp.Days = append(resp.Days, current)
		}
		current.Slots = append(current.Slots, models.FromDomainSlot(slot, locked[slot.Key()], now))
	}

	s.logger.Info("GetSchedule: returned %d slots in %d days", len(slots), len(resp.Days))
	return resp, nil
}

// GetOverview возвращает сводку по датам диапазона
func (s *Service) GetOverview(ctx context.Context, from, to time.Time) (*models.OverviewResponse, error) {
	s.logger.Info("GetOverview: range %s..%s", from.Format(domain.DateFormat), to.Format(domain.DateFormat))

	from, to, err := s.validateRange(from, to)
	if err != nil {
		return nil, err
	}

	days, err := s.slotRepo.Overview(ctx, from, to)
	if err != nil {
		s.logger.Error("GetOverview: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetOverview - overview: %v", ErrInternal, err)
	}

	resp := &models.OverviewResponse{
		StartDate: from.Format(domain.DateFormat),
		EndDate:   to.Format(domain.DateFormat),
		Days:      make([]*models.DayOverviewResponse, 0, len(days)),
	}
	for _, d := range days {
		resp.Days = append(resp.Days, models.FromDomainOverview(d))
	}

	return resp, nil
}

// CreateSlot создает слот вручную
func (s *Service) CreateSlot(ctx context.Context, req *models.CreateSlotRequest) (*models.SlotResponse, error) {
	s.logger.Info("CreateSlot: date=%s, start=%s, duration=%d, capacity=%d",
		req.Date.Format(domain.DateFormat), req.StartTime, req.DurationMinutes, req.MaxBookings)

	now := s.timeProvider.Now()

	// 1. Валидация
	if err := validateCreateSlot(req, now); err != nil {
		s.logger.Warn("CreateSlot: validation failed: %v", err)
		return nil, err
	}

	endTime, err := req.StartTime.AddMinutes(req.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("%w: slot must end before midnight", ErrInvalidInput)
	}

	// 2. Создаем слот
	slot, err := s.slotRepo.Create(ctx, &domain.Slot{
		Date:            domain.TruncateDate(req.Date),
		StartTime:       req.StartTime,
		EndTime:         endTime,
		DurationMinutes: req.DurationMinutes,
		MaxBookings:     req.MaxBookings,
	})
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotExists) {
			s.logger.Warn("CreateSlot: slot %s %s already exists", req.Date.Format(domain.DateFormat), req.StartTime)
			return nil, ErrSlotExists
		}
		s.logger.Error("CreateSlot: repository error: %v", err)
		return nil, fmt.Errorf("%w: CreateSlot - create: %v", ErrInternal, err)
	}

	// 3. Уведомляем подписчиков
	s.publish(ctx, domain.ChangeInsert, nil, slot)

	s.logger.Info("CreateSlot: created slot id=%d", slot.ID)
	return models.FromDomainSlot(slot, false, now), nil
}

// CreateWeeklySlots материализует шаблон в слоты для диапазона дат
// Уже существующие слоты (та же дата и время) не изменяются
func (s *Service) CreateWeeklySlots(ctx context.Context, req *models.CreateWeeklySlotsRequest) (*models.CreateWeeklySlotsResponse, error) {
	s.logger.Info("CreateWeeklySlots: range %s..%s",
		req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat))

	from, to, err := s.validateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	// 1. Получаем шаблон и исключения
	template, err := s.scheduleRepo.GetTemplate(ctx)
	if err != nil {
		s.logger.Error("CreateWeeklySlots: failed to get template: %v", err)
		return nil, fmt.Errorf("%w: CreateWeeklySlots - get template: %v", ErrInternal, err)
	}

	overrides, err := s.scheduleRepo.ListOverrides(ctx, from, to)
	if err != nil {
		s.logger.Error("CreateWeeklySlots: failed to get overrides: %v", err)
		return nil, fmt.Errorf("%w: CreateWeeklySlots - list overrides: %v", ErrInternal, err)
	}

	// 2. Генерируем слоты
	slots := GenerateSlots(template, overrides, from, to, s.timeProvider.Now())

	// 3. Сохраняем только отсутствующие
	created, err := s.slotRepo.CreateMissing(ctx, slots)
	if err != nil {
		s.logger.Error("CreateWeeklySlots: failed after %d slots: %v", created, err)
		return nil, fmt.Errorf("%w: CreateWeeklySlots - create slots: %v", ErrInternal, err)
	}

	if created > 0 {
		s.publish(ctx, domain.ChangeInsert, nil, map[string]interface{}{
			"start_date": from.Format(domain.DateFormat),
			"end_date":   to.Format(domain.DateFormat),
			"created":    created,
		})
	}

	s.logger.Info("CreateWeeklySlots: generated=%d, created=%d", len(slots), created)
	return &models.CreateWeeklySlotsResponse{
		Generated: len(slots),
		Created:   created,
		Skipped:   len(slots) - created,
	}, nil
}

// ToggleWorkingDay включает или выключает рабочий день
// Для даты создается исключение, для дня недели меняется шаблон
func (s *Service) ToggleWorkingDay(ctx context.Context, req *models.ToggleWorkingDayRequest) (*models.ToggleWorkingDayResponse, error) {
	if (req.Date == nil) == (req.Weekday == nil) {
		return nil, fmt.Errorf("%w: exactly one of date or weekday is required", ErrInvalidInput)
	}

	if req.Date != nil {
		date := domain.TruncateDate(*req.Date)
		s.logger.Info("ToggleWorkingDay: date=%s, working=%t", date.Format(domain.DateFormat), req.IsWorkingDay)

		if req.Reason != nil && len(*req.Reason) > domain.MaxBlockReasonLength {
			return nil, fmt.Errorf("%w: reason is too long", ErrInvalidInput)
		}

		_, err := s.scheduleRepo.UpsertOverride(ctx, &domain.ScheduleOverride{
			Date:         date,
			IsWorkingDay: req.IsWorkingDay,
			Reason:       req.Reason,
		})
		if err != nil {
			s.logger.Error("ToggleWorkingDay: failed to save override: %v", err)
			return nil, fmt.Errorf("%w: ToggleWorkingDay - upsert override: %v", ErrInternal, err)
		}

		return &models.ToggleWorkingDayResponse{
			Date:         ptr.Ptr(date.Format(domain.DateFormat)),
			IsWorkingDay: req.IsWorkingDay,
		}, nil
	}

	weekday := *req.Weekday
	s.logger.Info("ToggleWorkingDay: weekday=%s, working=%t", weekday, req.IsWorkingDay)

	if err := s.scheduleRepo.SetWeekdayWorking(ctx, weekday, req.IsWorkingDay); err != nil {
		if errors.Is(err, scheduleRepo.ErrWorkingDayNotFound) {
			s.logger.Warn("ToggleWorkingDay: no template row for %s", weekday)
			return nil, ErrWorkingDayNotFound
		}
		s.logger.Error("ToggleWorkingDay: repository error: %v", err)
		return nil, fmt.Errorf("%w: ToggleWorkingDay - set weekday: %v", ErrInternal, err)
	}

	return &models.ToggleWorkingDayResponse{
		Weekday:      ptr.Ptr(weekday.String()),
		IsWorkingDay: req.IsWorkingDay,
	}, nil
}

// UpsertTemplate создает или заменяет строку недельного шаблона
func (s *Service) UpsertTemplate(ctx context.Context, req *models.UpdateTemplateRequest) (*models.WorkingDayResponse, error) {
	s.logger.Info("UpsertTemplate: weekday=%s, working=%t", req.Weekday, req.IsWorkingDay)

	day := req.ToDomain()
	if err := validateWorkingDay(day); err != nil {
		s.logger.Warn("UpsertTemplate: validation failed: %v", err)
		return nil, err
	}

	saved, err := s.scheduleRepo.UpsertWorkingDay(ctx, day)
	if err != nil {
		s.logger.Error("UpsertTemplate: repository error: %v", err)
		return nil, fmt.Errorf("%w: UpsertTemplate - upsert: %v", ErrInternal, err)
	}

	return models.FromDomainWorkingDay(saved), nil
}

// BlockSlot закрывает слот для новых бронирований
func (s *Service) BlockSlot(ctx context.Context, slotID int64, reason *string) (*models.SlotResponse, error) {
	s.logger.Info("BlockSlot: slot id=%d", slotID)

	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		if len(trimmed) > domain.MaxBlockReasonLength {
			return nil, fmt.Errorf("%w: block reason is too long", ErrInvalidInput)
		}
		reason = &trimmed
	}

	return s.setBlocked(ctx, "BlockSlot", slotID, true, reason)
}

// UnblockSlot снимает блокировку слота
func (s *Service) UnblockSlot(ctx context.Context, slotID int64) (*models.SlotResponse, error) {
	s.logger.Info("UnblockSlot: slot id=%d", slotID)
	return s.setBlocked(ctx, "UnblockSlot", slotID, false, nil)
}

// DeleteSlot удаляет слот без бронирований
// Если на слот есть бронирования, слот не удаляется, а блокируется с причиной
func (s *Service) DeleteSlot(ctx context.Context, slotID int64) (*models.DeleteSlotResponse, error) {
	s.logger.Info("DeleteSlot: slot id=%d", slotID)

	err := s.slotRepo.Delete(ctx, slotID)
	switch {
	case err == nil:
		s.publish(ctx, domain.ChangeDelete, map[string]int64{"id": slotID}, nil)
		s.logger.Info("DeleteSlot: slot id=%d deleted", slotID)
		return &models.DeleteSlotResponse{SlotID: slotID, Deleted: true}, nil

	case errors.Is(err, slotRepo.ErrSlotNotFound):
		s.logger.Warn("DeleteSlot: slot id=%d not found", slotID)
		return nil, ErrSlotNotFound

	case errors.Is(err, slotRepo.ErrSlotInUse):
		s.logger.Warn("DeleteSlot: slot id=%d has bookings, blocking instead", slotID)
		slot, err := s.setBlocked(ctx, "DeleteSlot", slotID, true, ptr.Ptr(inUseBlockReason))
		if err != nil {
			return nil, err
		}
		return &models.DeleteSlotResponse{SlotID: slotID, SoftBlocked: true, Slot: slot}, nil

	default:
		s.logger.Error("DeleteSlot: repository error: %v", err)
		return nil, fmt.Errorf("%w: DeleteSlot - delete: %v", ErrInternal, err)
	}
}

// Вспомогательные методы

func (s *Service) setBlocked(ctx context.Context, op string, slotID int64, blocked bool, reason *string) (*models.SlotResponse, error) {
	before, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("%s: slot id=%d not found", op, slotID)
			return nil, ErrSlotNotFound
		}
		s.logger.Error("%s: repository error: %v", op, err)
		return nil, fmt.Errorf("%w: %s - get slot: %v", ErrInternal, op, err)
	}

	slot, err := s.slotRepo.SetBlocked(ctx, slotID, blocked, reason)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		s.logger.Error("%s: repository error: %v", op, err)
		return nil, fmt.Errorf("%w: %s - set blocked: %v", ErrInternal, op, err)
	}

	s.publish(ctx, domain.ChangeUpdate, before, slot)
	return models.FromDomainSlot(slot, false, s.timeProvider.Now()), nil
}

// activeLocks возвращает занятые блокировками слоты
// Ошибка хранилища блокировок не ломает чтение расписания: при бронировании блокировка перепроверяется
func (s *Service) activeLocks(ctx context.Context, slots []*domain.Slot, now time.Time) map[domain.SlotKey]bool {
	if s.locks == nil || len(slots) == 0 {
		return map[domain.SlotKey]bool{}
	}

	keys := make([]domain.SlotKey, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, slot.Key())
	}

	locked, err := s.locks.ListActive(ctx, keys, now)
	if err != nil {
		s.logger.Warn("GetSchedule: failed to read locks, showing slots without lock state: %v", err)
		return map[domain.SlotKey]bool{}
	}
	return locked
}

func (s *Service) publish(ctx context.Context, eventType domain.ChangeType, before, after interface{}) {
	if s.publisher == nil {
		return
	}
	ev := domain.ChangeEvent{
		EventType:  eventType,
		Table:      domain.TableSlots,
		Old:        before,
		New:        after,
		OccurredAt: s.timeProvider.Now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("schedule: failed to publish %s event: %v", eventType, err)
	}
}

func (s *Service) validateRange(from, to time.Time) (time.Time, time.Time, error) {
	from = domain.TruncateDate(from)
	to = domain.TruncateDate(to)

	if from.IsZero() || to.IsZero() {
		return from, to, fmt.Errorf("%w: start and end are required", ErrInvalidDateRange)
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("%w: end is before start", ErrInvalidDateRange)
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.maxRangeDays {
		return from, to, fmt.Errorf("%w: range of %d days exceeds %d", ErrInvalidDateRange, days, s.maxRangeDays)
	}
	return from, to, nil
}
