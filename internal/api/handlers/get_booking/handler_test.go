package get_booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/bookings"
	"github.com/m04kA/SMC-DetailingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
)

type fakeBookings struct {
	err error
}

func (f *fakeBookings) GetByID(_ context.Context, id int64, _ domain.Actor) (*models.BookingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingResponse{ID: id, Reference: "DT-ABC234"}, nil
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		err        error
		wantStatus int
	}{
		{"ok", "8", nil, http.StatusOK},
		{"bad id", "eight", nil, http.StatusBadRequest},
		{"not found", "8", bookings.ErrBookingNotFound, http.StatusNotFound},
		{"foreign", "8", bookings.ErrAccessDenied, http.StatusForbidden},
		{"internal", "8", bookings.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+tt.id, nil)
			req = mux.SetURLVars(req, map[string]string{"bookingId": tt.id})
			rec := httptest.NewRecorder()
			NewHandler(&fakeBookings{err: tt.err}, logger.Discard()).Handle(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
