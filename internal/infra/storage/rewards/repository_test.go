package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DetailingService/pkg/ptr"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(dbmetrics.Wrap(db, nil)), mock
}

func TestRepository_AddTransaction_Idempotent(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO reward_transactions .* ON CONFLICT \(booking_id, type\) WHERE booking_id IS NOT NULL DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
	mock.ExpectQuery(`INSERT INTO reward_transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	entry := func() *domain.RewardTransaction {
		return &domain.RewardTransaction{UserID: 5, BookingID: ptr.Ptr(int64(42)), Type: domain.RewardEarned, Points: 70, Reason: "booking DT-ABC123"}
	}

	_, err := repo.AddTransaction(context.Background(), entry())
	require.NoError(t, err)

	_, err = repo.AddTransaction(context.Background(), entry())
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_AddTierNotification_Once(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO tier_notifications .* ON CONFLICT \(user_id, to_tier\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
	mock.ExpectQuery(`INSERT INTO tier_notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	n := &domain.TierNotification{UserID: 5, FromTier: domain.TierBronze, ToTier: domain.TierSilver}

	created, err := repo.AddTierNotification(context.Background(), n)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.AddTierNotification(context.Background(), n)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
