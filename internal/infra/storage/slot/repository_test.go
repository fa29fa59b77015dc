package slot

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

func slotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "slot_date", "start_time", "end_time", "duration_minutes", "max_bookings",
		"current_bookings", "is_blocked", "block_reason", "created_at", "updated_at",
	})
}

func TestRepository_Reserve(t *testing.T) {
	repo, mock := newMockRepo(t)
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE slots SET current_bookings = current_bookings \+ 1.*current_bookings < max_bookings.*RETURNING`).
		WillReturnRows(slotRows().AddRow(7, date, "10:00:00", "12:00:00", 120, 2, 1, false, nil, date, date))

	slot, err := repo.Reserve(context.Background(), 7, today)
	require.NoError(t, err)
	assert.Equal(t, int64(7), slot.ID)
	assert.Equal(t, 1, slot.CurrentBookings)
	assert.Equal(t, "10:00", slot.StartTime.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Reserve_Full(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE slots SET current_bookings = current_bookings \+ 1`).
		WillReturnRows(slotRows())

	_, err := repo.Reserve(context.Background(), 7, time.Now())
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Release(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE slots SET current_bookings = current_bookings - 1.*current_bookings > 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE slots SET current_bookings = current_bookings - 1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	released, err := repo.Release(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = repo.Release(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_Exists(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO slots .* ON CONFLICT \(slot_date, start_time\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))

	_, err := repo.Create(context.Background(), testSlot())
	assert.ErrorIs(t, err, ErrSlotExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func testSlot() *domain.Slot {
	return &domain.Slot{
		Date:            time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		StartTime:       types.MustTimeString("09:00"),
		EndTime:         types.MustTimeString("11:00"),
		DurationMinutes: 120,
		MaxBookings:     1,
	}
}
