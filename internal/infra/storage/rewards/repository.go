package rewards

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

// Repository репозиторий бонусных счетов, журнала начислений и уведомлений об уровнях
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бонусов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// EnsureAccount создает счет, если его нет, и возвращает текущее состояние
// Внутри транзакции строка счета блокируется (FOR UPDATE)
func (r *Repository) EnsureAccount(ctx context.Context, userID int64) (*domain.RewardsAccount, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("rewards_accounts").
		Columns("user_id", "tier").
		Values(userID, domain.TierBronze).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: EnsureAccount - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: EnsureAccount - execute insert: %v", ErrExecQuery, err)
	}

	return r.GetAccount(ctx, userID)
}

// GetAccount получает счет пользователя
func (r *Repository) GetAccount(ctx context.Context, userID int64) (*domain.RewardsAccount, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("user_id", "points_balance", "lifetime_points", "tier", "created_at", "updated_at").
		From("rewards_accounts").
		Where(squirrel.Eq{"user_id": userID})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetAccount - build select query: %v", ErrBuildQuery, err)
	}

	var a domain.RewardsAccount
	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&a.UserID,
		&a.PointsBalance,
		&a.LifetimePoints,
		&a.Tier,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetAccount - scan account: %v", ErrScanRow, err)
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}

// UpdateAccount сохраняет баланс, сумму за все время и уровень
func (r *Repository) UpdateAccount(ctx context.Context, a *domain.RewardsAccount) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("rewards_accounts").
		Set("points_balance", a.PointsBalance).
		Set("lifetime_points", a.LifetimePoints).
		Set("tier", a.Tier).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"user_id": a.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateAccount - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateAccount - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateAccount - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// AddTransaction добавляет запись в журнал
// Для записей с бронированием пара (booking_id, type) уникальна: повтор возвращает ErrDuplicateTransaction
func (r *Repository) AddTransaction(ctx context.Context, tx *domain.RewardTransaction) (*domain.RewardTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reward_transactions").
		Columns("user_id", "booking_id", "type", "points", "reason").
		Values(tx.UserID, tx.BookingID, tx.Type, tx.Points, tx.Reason).
		Suffix("ON CONFLICT (booking_id, type) WHERE booking_id IS NOT NULL DO NOTHING RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: AddTransaction - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&tx.ID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicateTransaction
	}
	if err != nil {
		return nil, fmt.Errorf("%w: AddTransaction - execute insert: %v", ErrExecQuery, err)
	}
	tx.CreatedAt = createdAt.Time

	return tx, nil
}

// ListTransactions возвращает журнал пользователя, сначала новые
func (r *Repository) ListTransactions(ctx context.Context, userID int64, limit int) ([]*domain.RewardTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "user_id", "booking_id", "type", "points", "reason", "created_at").
		From("reward_transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		selectBuilder = selectBuilder.Limit(uint64(limit))
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListTransactions - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListTransactions - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	txs := make([]*domain.RewardTransaction, 0)
	for rows.Next() {
		var t domain.RewardTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.BookingID, &t.Type, &t.Points, &t.Reason, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: ListTransactions - scan row: %v", ErrScanRow, err)
		}
		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListTransactions - rows error: %v", ErrScanRow, err)
	}

	return txs, nil
}

// AddTierNotification записывает уведомление о переходе на уровень
// created=false, если уведомление для этого уровня уже было
func (r *Repository) AddTierNotification(ctx context.Context, n *domain.TierNotification) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("tier_notifications").
		Columns("user_id", "from_tier", "to_tier").
		Values(n.UserID, n.FromTier, n.ToTier).
		Suffix("ON CONFLICT (user_id, to_tier) DO NOTHING RETURNING id, created_at").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: AddTierNotification - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&n.ID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: AddTierNotification - execute insert: %v", ErrExecQuery, err)
	}
	n.CreatedAt = createdAt.Time

	return true, nil
}
