package booking

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(dbmetrics.Wrap(db, nil)), mock
}

func newBooking(reference string) *domain.Booking {
	return &domain.Booking{
		Reference:           reference,
		Status:              domain.StatusPending,
		CustomerName:        "Jane Doe",
		CustomerEmail:       "jane@example.com",
		VehicleMake:         "VW",
		VehicleModel:        "Golf",
		VehicleRegistration: "AB12CDE",
		VehicleSize:         domain.VehicleSizeMedium,
		ServiceID:           1,
		ServiceName:         "Full valet",
		SlotID:              7,
		BookingDate:         time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		StartTime:           types.MustTimeString("10:00"),
		DurationMinutes:     120,
		ServicePricePence:   6000,
		TotalPricePence:     6000,
		LoyaltyTier:         domain.TierBronze,
		PaymentMethod:       domain.PaymentMethodCash,
		PaymentStatus:       domain.PaymentStatusPending,
	}
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO bookings .* ON CONFLICT \(reference\) DO NOTHING RETURNING id, created_at, updated_at`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, now, now))

	created, err := repo.Create(context.Background(), newBooking("DT-ABC123"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_ReferenceTaken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))

	_, err := repo.Create(context.Background(), newBooking("DT-ABC123"))
	assert.ErrorIs(t, err, ErrReferenceTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_TransitionStatus_Conditional(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	reason := "customer request"

	mock.ExpectExec(`UPDATE bookings SET status = \$1.*cancelled_at.*WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.TransitionStatus(context.Background(), 42, domain.StatusPending, domain.StatusCancelled, &reason, now)
	require.NoError(t, err)

	err = repo.TransitionStatus(context.Background(), 42, domain.StatusPending, domain.StatusCancelled, &reason, now)
	assert.ErrorIs(t, err, ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
