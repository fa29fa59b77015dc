package user

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
)

// Repository репозиторий пользователей, их автомобилей и токенов установки пароля
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория пользователей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает пользователя по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "GetByID", squirrel.Eq{"id": id})
}

// GetByEmail получает пользователя по email без учета регистра
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "GetByEmail", squirrel.Expr("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))))
}

func (r *Repository) getOne(ctx context.Context, op string, pred squirrel.Sqlizer) (*domain.User, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "email", "name", "phone", "password_hash", "role", "created_at", "updated_at").
		From("users").
		Where(pred)
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	var u domain.User
	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Phone,
		&u.PasswordHash,
		&u.Role,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan user: %v", ErrScanRow, op, err)
	}

	u.CreatedAt = createdAt.Time
	u.UpdatedAt = updatedAt.Time

	return &u, nil
}

// Create создает пользователя
// Email уникален без учета регистра: при коллизии возвращается ErrEmailTaken, существующая запись не меняется
func (r *Repository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("users").
		Columns("email", "name", "phone", "password_hash", "role").
		Values(strings.TrimSpace(u.Email), u.Name, u.Phone, u.PasswordHash, u.Role).
		Suffix("ON CONFLICT ((LOWER(email))) DO NOTHING RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&u.ID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	u.CreatedAt = createdAt.Time
	u.UpdatedAt = updatedAt.Time

	return u, nil
}

// SetPasswordHash устанавливает хеш пароля
func (r *Repository) SetPasswordHash(ctx context.Context, userID int64, hash string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("users").
		Set("password_hash", hash).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetPasswordHash - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetPasswordHash - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetPasswordHash - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GetVehicle получает сохраненный автомобиль по ID
func (r *Repository) GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "user_id", "make", "model", "registration", "size").
		From("vehicles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetVehicle - build select query: %v", ErrBuildQuery, err)
	}

	var v domain.Vehicle
	err = executor.QueryRowContext(ctx, query, args...).Scan(&v.ID, &v.UserID, &v.Make, &v.Model, &v.Registration, &v.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetVehicle - scan vehicle: %v", ErrScanRow, err)
	}

	return &v, nil
}

// SaveVehicle сохраняет автомобиль пользователя
// Повторное сохранение того же номера обновляет марку, модель и размер
func (r *Repository) SaveVehicle(ctx context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("vehicles").
		Columns("user_id", "make", "model", "registration", "size").
		Values(v.UserID, v.Make, v.Model, domain.NormalizeRegistration(v.Registration), v.Size).
		Suffix(`ON CONFLICT (user_id, registration) DO UPDATE SET
			make = EXCLUDED.make,
			model = EXCLUDED.model,
			size = EXCLUDED.size,
			updated_at = NOW()
			RETURNING id`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: SaveVehicle - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&v.ID); err != nil {
		return nil, fmt.Errorf("%w: SaveVehicle - execute insert: %v", ErrExecQuery, err)
	}
	v.Registration = domain.NormalizeRegistration(v.Registration)

	return v, nil
}

// SaveSetupToken сохраняет хеш токена установки пароля, заменяя предыдущий
func (r *Repository) SaveSetupToken(ctx context.Context, t *domain.PasswordSetupToken) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("password_setup_tokens").
		Columns("user_id", "token_hash", "expires_at").
		Values(t.UserID, t.TokenHash, t.ExpiresAt).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			expires_at = EXCLUDED.expires_at,
			used_at = NULL,
			created_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SaveSetupToken - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: SaveSetupToken - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetSetupToken получает токен установки пароля пользователя
func (r *Repository) GetSetupToken(ctx context.Context, userID int64) (*domain.PasswordSetupToken, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("user_id", "token_hash", "expires_at", "used_at", "created_at").
		From("password_setup_tokens").
		Where(squirrel.Eq{"user_id": userID})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetSetupToken - build select query: %v", ErrBuildQuery, err)
	}

	var t domain.PasswordSetupToken
	err = executor.QueryRowContext(ctx, query, args...).Scan(&t.UserID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetSetupToken - scan token: %v", ErrScanRow, err)
	}

	return &t, nil
}

// MarkSetupTokenUsed помечает токен использованным
func (r *Repository) MarkSetupTokenUsed(ctx context.Context, userID int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("password_setup_tokens").
		Set("used_at", at).
		Where(squirrel.Eq{"user_id": userID, "used_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkSetupTokenUsed - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: MarkSetupTokenUsed - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: MarkSetupTokenUsed - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrTokenNotFound
	}

	return nil
}
