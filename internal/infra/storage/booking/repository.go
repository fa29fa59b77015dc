package booking

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

var bookingColumns = []string{
	"id",
	"reference",
	"status",
	"user_id",
	"customer_name",
	"customer_email",
	"customer_phone",
	"vehicle_id",
	"vehicle_make",
	"vehicle_model",
	"vehicle_registration",
	"vehicle_size",
	"service_id",
	"service_name",
	"slot_id",
	"booking_date",
	"start_time",
	"duration_minutes",
	"postcode",
	"notes",
	"service_price_pence",
	"travel_surcharge_pence",
	"discount_percent",
	"discount_pence",
	"total_price_pence",
	"loyalty_tier",
	"payment_method",
	"payment_status",
	"payment_intent_id",
	"confirmed_at",
	"started_at",
	"completed_at",
	"cancelled_at",
	"cancellation_reason",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новое бронирование
// Номер бронирования вставляется через ON CONFLICT DO NOTHING: при коллизии возвращается ErrReferenceTaken,
// и вызывающий код генерирует новый номер
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"reference",
			"status",
			"user_id",
			"customer_name",
			"customer_email",
			"customer_phone",
			"vehicle_id",
			"vehicle_make",
			"vehicle_model",
			"vehicle_registration",
			"vehicle_size",
			"service_id",
			"service_name",
			"slot_id",
			"booking_date",
			"start_time",
			"duration_minutes",
			"postcode",
			"notes",
			"service_price_pence",
			"travel_surcharge_pence",
			"discount_percent",
			"discount_pence",
			"total_price_pence",
			"loyalty_tier",
			"payment_method",
			"payment_status",
			"payment_intent_id",
		).
		Values(
			booking.Reference,
			booking.Status,
			booking.UserID,
			booking.CustomerName,
			booking.CustomerEmail,
			booking.CustomerPhone,
			booking.VehicleID,
			booking.VehicleMake,
			booking.VehicleModel,
			booking.VehicleRegistration,
			booking.VehicleSize,
			booking.ServiceID,
			booking.ServiceName,
			booking.SlotID,
			booking.BookingDate,
			booking.StartTime,
			booking.DurationMinutes,
			booking.Postcode,
			booking.Notes,
			booking.ServicePricePence,
			booking.TravelSurchargePence,
			booking.DiscountPercent,
			booking.DiscountPence,
			booking.TotalPricePence,
			booking.LoyaltyTier,
			booking.PaymentMethod,
			booking.PaymentStatus,
			booking.PaymentIntentID,
		).
		Suffix("ON CONFLICT (reference) DO NOTHING RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReferenceTaken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetByReference получает бронирование по номеру
func (r *Repository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"reference": reference}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByReference - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByReference - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// List возвращает бронирования по фильтру
// Сортировка: по дате и времени, сначала ближайшие
func (r *Repository) List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).From("bookings")

	if filter.UserID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"booking_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"booking_date": *filter.EndDate})
	}
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}

	selectBuilder = selectBuilder.OrderBy("booking_date ASC", "start_time ASC", "id ASC")

	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		selectBuilder = selectBuilder.Offset(uint64(filter.Offset))
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan booking: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// CountBySlot считает все бронирования слота, включая отмененные
func (r *Repository) CountBySlot(ctx context.Context, slotID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("bookings").
		Where(squirrel.Eq{"slot_id": slotID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountBySlot - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountBySlot - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// TransitionStatus переводит бронирование из статуса from в статус to
// Обновление условное: если статус уже другой, возвращается ErrStatusChanged
func (r *Repository) TransitionStatus(ctx context.Context, id int64, from, to domain.BookingStatus, reason *string, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", to).
		Set("updated_at", at)

	switch to {
	case domain.StatusConfirmed:
		updateBuilder = updateBuilder.Set("confirmed_at", at)
	case domain.StatusInProgress:
		updateBuilder = updateBuilder.Set("started_at", at)
	case domain.StatusCompleted:
		updateBuilder = updateBuilder.Set("completed_at", at)
	case domain.StatusCancelled, domain.StatusNoShow:
		updateBuilder = updateBuilder.Set("cancelled_at", at).Set("cancellation_reason", reason)
	}

	query, args, err := updateBuilder.
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: TransitionStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: TransitionStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: TransitionStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrStatusChanged
	}

	return nil
}

// UpdatePayment обновляет статус платежа и ID платежного намерения
func (r *Repository) UpdatePayment(ctx context.Context, id int64, status domain.PaymentStatus, intentID *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("payment_status", status).
		Set("updated_at", squirrel.Expr("NOW()"))
	if intentID != nil {
		updateBuilder = updateBuilder.Set("payment_intent_id", *intentID)
	}

	query, args, err := updateBuilder.Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdatePayment - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdatePayment - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdatePayment - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// scanBooking сканирует строку в бронирование в порядке bookingColumns
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.Status,
		&booking.UserID,
		&booking.CustomerName,
		&booking.CustomerEmail,
		&booking.CustomerPhone,
		&booking.VehicleID,
		&booking.VehicleMake,
		&booking.VehicleModel,
		&booking.VehicleRegistration,
		&booking.VehicleSize,
		&booking.ServiceID,
		&booking.ServiceName,
		&booking.SlotID,
		&booking.BookingDate,
		&booking.StartTime,
		&booking.DurationMinutes,
		&booking.Postcode,
		&booking.Notes,
		&booking.ServicePricePence,
		&booking.TravelSurchargePence,
		&booking.DiscountPercent,
		&booking.DiscountPence,
		&booking.TotalPricePence,
		&booking.LoyaltyTier,
		&booking.PaymentMethod,
		&booking.PaymentStatus,
		&booking.PaymentIntentID,
		&booking.ConfirmedAt,
		&booking.StartedAt,
		&booking.CompletedAt,
		&booking.CancelledAt,
		&booking.CancellationReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}
