package list_bookings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/api/middleware"
	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/bookings"
	"github.com/m04kA/SMC-DetailingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
)

type fakeBookings struct {
	listFunc func(req *models.ListBookingsRequest) (*models.BookingListResponse, error)
}

func (f *fakeBookings) ListBookings(_ context.Context, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	return f.listFunc(req)
}

func list(svc BookingService, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?"+query, nil)
	req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: 1, Role: domain.RoleAdmin}))
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.Discard()).Handle(rec, req)
	return rec
}

func TestHandle_ParsesFilter(t *testing.T) {
	var got *models.ListBookingsRequest
	svc := &fakeBookings{listFunc: func(req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
		got = req
		return &models.BookingListResponse{Bookings: []models.BookingResponse{{ID: 1}}}, nil
	}}

	rec := list(svc, "start_date=2025-06-01&end_date=2025-06-30&status=confirmed&user_id=9&limit=20&offset=40")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.StartDate)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, 30, got.EndDate.Day())
	require.NotNil(t, got.Status)
	assert.Equal(t, "confirmed", *got.Status)
	require.NotNil(t, got.UserID)
	assert.Equal(t, int64(9), *got.UserID)
	assert.Equal(t, 20, got.Limit)
	assert.Equal(t, 40, got.Offset)
	assert.True(t, got.Actor.IsAdmin())
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		svcErr     error
		wantStatus int
	}{
		{"bad date", "start_date=june", nil, http.StatusBadRequest},
		{"bad limit", "limit=many", nil, http.StatusBadRequest},
		{"bad user", "user_id=x", nil, http.StatusBadRequest},
		{"not admin", "", bookings.ErrAccessDenied, http.StatusForbidden},
		{"bad range", "start_date=2025-06-30&end_date=2025-06-01", bookings.ErrInvalidInput, http.StatusBadRequest},
		{"internal", "", bookings.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeBookings{listFunc: func(*models.ListBookingsRequest) (*models.BookingListResponse, error) {
				return nil, tt.svcErr
			}}
			assert.Equal(t, tt.wantStatus, list(svc, tt.query).Code)
		})
	}
}
