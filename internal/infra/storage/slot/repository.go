package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DetailingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

var slotColumns = []string{
	"id",
	"slot_date",
	"start_time",
	"end_time",
	"duration_minutes",
	"max_bookings",
	"current_bookings",
	"is_blocked",
	"block_reason",
	"created_at",
	"updated_at",
}

// Repository репозиторий слотов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет слот, если на эту дату и время его еще нет
// При существующем слоте возвращает ErrSlotExists
func (r *Repository) Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("slots").
		Columns(
			"slot_date",
			"start_time",
			"end_time",
			"duration_minutes",
			"max_bookings",
			"current_bookings",
			"is_blocked",
			"block_reason",
		).
		Values(
			slot.Date,
			slot.StartTime,
			slot.EndTime,
			slot.DurationMinutes,
			slot.MaxBookings,
			slot.CurrentBookings,
			slot.IsBlocked,
			slot.BlockReason,
		).
		Suffix("ON CONFLICT (slot_date, start_time) DO NOTHING RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&slot.ID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotExists
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time

	return slot, nil
}

// CreateMissing добавляет слоты, которых еще нет, и возвращает число созданных
func (r *Repository) CreateMissing(ctx context.Context, slots []*domain.Slot) (int, error) {
	created := 0
	for _, s := range slots {
		_, err := r.Create(ctx, s)
		if errors.Is(err, ErrSlotExists) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// GetByID получает слот по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"id": id})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// GetByDateTime получает слот по дате и времени начала
func (r *Repository) GetByDateTime(ctx context.Context, date time.Time, start types.TimeString) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"slot_date": date, "start_time": start}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByDateTime - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByDateTime - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// ListByRange возвращает слоты в диапазоне дат (включительно), по дате и времени
func (r *Repository) ListByRange(ctx context.Context, from, to time.Time) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.GtOrEq{"slot_date": from}).
		Where(squirrel.LtOrEq{"slot_date": to}).
		OrderBy("slot_date ASC", "start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByRange - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByRange - scan slot: %v", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByRange - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

// Overview агрегирует слоты по датам
func (r *Repository) Overview(ctx context.Context, from, to time.Time) ([]*domain.DayOverview, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"slot_date",
		"COUNT(*)",
		"COALESCE(SUM(max_bookings), 0)",
		"COALESCE(SUM(current_bookings), 0)",
		"COUNT(*) FILTER (WHERE is_blocked)",
		"COUNT(*) FILTER (WHERE NOT is_blocked AND current_bookings < max_bookings)",
	).
		From("slots").
		Where(squirrel.GtOrEq{"slot_date": from}).
		Where(squirrel.LtOrEq{"slot_date": to}).
		GroupBy("slot_date").
		OrderBy("slot_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Overview - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: Overview - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	days := make([]*domain.DayOverview, 0)
	for rows.Next() {
		var day domain.DayOverview
		if err := rows.Scan(&day.Date, &day.TotalSlots, &day.TotalCapacity, &day.Booked, &day.Blocked, &day.Available); err != nil {
			return nil, fmt.Errorf("%w: Overview - scan row: %v", ErrScanRow, err)
		}
		days = append(days, &day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: Overview - rows error: %v", ErrScanRow, err)
	}

	return days, nil
}

// Reserve атомарно занимает одно место в слоте
// Инкремент проходит только если есть места, слот не заблокирован и дата не в прошлом,
// иначе возвращается ErrSlotUnavailable
func (r *Repository) Reserve(ctx context.Context, id int64, today time.Time) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("current_bookings", squirrel.Expr("current_bookings + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "is_blocked": false}).
		Where("current_bookings < max_bookings").
		Where(squirrel.GtOrEq{"slot_date": domain.TruncateDate(today)}).
		Suffix("RETURNING " + strings.Join(slotColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Reserve - build update query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Reserve - execute update: %w", ErrExecQuery, err)
	}

	return slot, nil
}

// Release возвращает одно место в слот
// Декремент условный (current_bookings > 0), released=false если возвращать нечего
func (r *Repository) Release(ctx context.Context, id int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("current_bookings", squirrel.Expr("current_bookings - 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where("current_bookings > 0").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: Release - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: Release - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Release - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

// SetBlocked блокирует или разблокирует слот
func (r *Repository) SetBlocked(ctx context.Context, id int64, blocked bool, reason *string) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if !blocked {
		reason = nil
	}

	query, args, err := psqlbuilder.Update("slots").
		Set("is_blocked", blocked).
		Set("block_reason", reason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(slotColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: SetBlocked - build update query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: SetBlocked - execute update: %v", ErrExecQuery, err)
	}

	return slot, nil
}

// Delete физически удаляет слот без бронирований
// Если в слоте есть занятые места, возвращает ErrSlotInUse
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slots").
		Where(squirrel.Eq{"id": id, "current_bookings": 0}).
		Where("NOT EXISTS (SELECT 1 FROM bookings b WHERE b.slot_id = slots.id)").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		// Различаем отсутствие слота и занятый слот
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrSlotInUse
	}

	return nil
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	var slot domain.Slot
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&slot.ID,
		&slot.Date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.DurationMinutes,
		&slot.MaxBookings,
		&slot.CurrentBookings,
		&slot.IsBlocked,
		&slot.BlockReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time

	return &slot, nil
}
