package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DetailingService/pkg/psqlbuilder"
)

// Repository репозиторий услуг и матрицы цен
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория цен
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetService получает услугу по ID
func (r *Repository) GetService(ctx context.Context, id int64) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "description", "is_active").
		From("services").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.Service
	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Name, &s.Description, &s.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - scan service: %v", ErrScanRow, err)
	}

	return &s, nil
}

// GetPrices возвращает строку матрицы цен для услуги
func (r *Repository) GetPrices(ctx context.Context, serviceID int64) (domain.PriceMatrix, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("service_id", "vehicle_size", "price_pence", "duration_minutes").
		From("service_prices").
		Where(squirrel.Eq{"service_id": serviceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetPrices - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetPrices - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	matrix := make(domain.PriceMatrix)
	for rows.Next() {
		var p domain.ServicePrice
		if err := rows.Scan(&p.ServiceID, &p.Size, &p.PricePence, &p.DurationMinutes); err != nil {
			return nil, fmt.Errorf("%w: GetPrices - scan row: %v", ErrScanRow, err)
		}
		matrix[p.Size] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetPrices - rows error: %v", ErrScanRow, err)
	}

	if len(matrix) == 0 {
		return nil, ErrPricesNotFound
	}

	return matrix, nil
}
