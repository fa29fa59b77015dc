package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DetailingService/pkg/psqlbuilder"
)

// Repository репозиторий недельного шаблона и исключений по датам
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписания
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetTemplate возвращает строки недельного шаблона по дням недели
// Дни без строки в шаблоне считаются нерабочими
func (r *Repository) GetTemplate(ctx context.Context) (domain.WeeklyTemplate, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"weekday",
		"is_working_day",
		"start_time",
		"end_time",
		"break_start",
		"break_end",
		"slot_duration_minutes",
		"max_slots_per_hour",
		"updated_at",
	).
		From("working_schedule").
		OrderBy("weekday ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetTemplate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetTemplate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	template := make(domain.WeeklyTemplate)
	for rows.Next() {
		var day domain.WorkingDay
		var weekday int
		var updatedAt sql.NullTime

		err := rows.Scan(
			&weekday,
			&day.IsWorkingDay,
			&day.StartTime,
			&day.EndTime,
			&day.BreakStart,
			&day.BreakEnd,
			&day.SlotDurationMinutes,
			&day.MaxSlotsPerHour,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: GetTemplate - scan row: %v", ErrScanRow, err)
		}

		day.Weekday = time.Weekday(weekday)
		day.UpdatedAt = updatedAt.Time
		template[day.Weekday] = &day
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetTemplate - rows error: %v", ErrScanRow, err)
	}

	return template, nil
}

// UpsertWorkingDay создает или заменяет строку шаблона для дня недели
func (r *Repository) UpsertWorkingDay(ctx context.Context, day *domain.WorkingDay) (*domain.WorkingDay, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("working_schedule").
		Columns(
			"weekday",
			"is_working_day",
			"start_time",
			"end_time",
			"break_start",
			"break_end",
			"slot_duration_minutes",
			"max_slots_per_hour",
		).
		Values(
			int(day.Weekday),
			day.IsWorkingDay,
			day.StartTime,
			day.EndTime,
			day.BreakStart,
			day.BreakEnd,
			day.SlotDurationMinutes,
			day.MaxSlotsPerHour,
		).
		Suffix(`ON CONFLICT (weekday) DO UPDATE SET
			is_working_day = EXCLUDED.is_working_day,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			break_start = EXCLUDED.break_start,
			break_end = EXCLUDED.break_end,
			slot_duration_minutes = EXCLUDED.slot_duration_minutes,
			max_slots_per_hour = EXCLUDED.max_slots_per_hour,
			updated_at = NOW()
			RETURNING updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: UpsertWorkingDay - build insert query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt); err != nil {
		return nil, fmt.Errorf("%w: UpsertWorkingDay - execute insert: %v", ErrExecQuery, err)
	}
	day.UpdatedAt = updatedAt.Time

	return day, nil
}

// SetWeekdayWorking переключает признак рабочего дня в шаблоне
func (r *Repository) SetWeekdayWorking(ctx context.Context, weekday time.Weekday, working bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("working_schedule").
		Set("is_working_day", working).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"weekday": int(weekday)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetWeekdayWorking - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetWeekdayWorking - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetWeekdayWorking - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrWorkingDayNotFound
	}

	return nil
}

// ListOverrides возвращает исключения в диапазоне дат
func (r *Repository) ListOverrides(ctx context.Context, from, to time.Time) (map[string]*domain.ScheduleOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"override_date",
		"is_working_day",
		"start_time",
		"end_time",
		"reason",
		"updated_at",
	).
		From("schedule_overrides").
		Where(squirrel.GtOrEq{"override_date": from}).
		Where(squirrel.LtOrEq{"override_date": to}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverrides - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverrides - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	overrides := make(map[string]*domain.ScheduleOverride)
	for rows.Next() {
		var o domain.ScheduleOverride
		var updatedAt sql.NullTime

		if err := rows.Scan(&o.Date, &o.IsWorkingDay, &o.StartTime, &o.EndTime, &o.Reason, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: ListOverrides - scan row: %v", ErrScanRow, err)
		}

		o.UpdatedAt = updatedAt.Time
		overrides[o.Date.Format(domain.DateFormat)] = &o
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListOverrides - rows error: %v", ErrScanRow, err)
	}

	return overrides, nil
}

// UpsertOverride создает или заменяет исключение для даты
func (r *Repository) UpsertOverride(ctx context.Context, o *domain.ScheduleOverride) (*domain.ScheduleOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("schedule_overrides").
		Columns("override_date", "is_working_day", "start_time", "end_time", "reason").
		Values(o.Date, o.IsWorkingDay, o.StartTime, o.EndTime, o.Reason).
		Suffix(`ON CONFLICT (override_date) DO UPDATE SET
			is_working_day = EXCLUDED.is_working_day,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			reason = EXCLUDED.reason,
			updated_at = NOW()
			RETURNING updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: UpsertOverride - build insert query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt); err != nil {
		return nil, fmt.Errorf("%w: UpsertOverride - execute insert: %v", ErrExecQuery, err)
	}
	o.UpdatedAt = updatedAt.Time

	return o, nil
}

// GetOverride возвращает исключение для даты
func (r *Repository) GetOverride(ctx context.Context, date time.Time) (*domain.ScheduleOverride, error) {
	overrides, err := r.ListOverrides(ctx, date, date)
	if err != nil {
		return nil, err
	}
	o, ok := overrides[date.Format(domain.DateFormat)]
	if !ok {
		return nil, ErrOverrideNotFound
	}
	return o, nil
}

// ResolveDay возвращает действующие параметры дня с учетом приоритета:
// 1. Исключение для даты (часы из исключения, остальное из шаблона дня недели)
// 2. Строка шаблона для дня недели
// Если нет ни того, ни другого, возвращает ErrWorkingDayNotFound
func (r *Repository) ResolveDay(ctx context.Context, date time.Time) (*domain.WorkingDay, error) {
	template, err := r.GetTemplate(ctx)
	if err != nil {
		return nil, err
	}

	override, err := r.GetOverride(ctx, date)
	if err != nil && !errors.Is(err, ErrOverrideNotFound) {
		return nil, err
	}

	day := domain.EffectiveDay(date, template, override)
	if day == nil {
		return nil, ErrWorkingDayNotFound
	}
	return day, nil
}
