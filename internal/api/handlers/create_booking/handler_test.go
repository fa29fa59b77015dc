package create_booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/api/handlers"
	"github.com/m04kA/SMC-DetailingService/internal/api/middleware"
	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/accounts"
	createBooking "github.com/m04kA/SMC-DetailingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

const validBody = `{
	"date": "2025-06-03",
	"start_time": "10:00",
	"lock_token": "tok-1",
	"service_id": 1,
	"customer": {"name": "Jane Doe", "email": "jane@example.com"},
	"vehicle": {"make": "Ford", "model": "Focus", "registration": "AB12 CDE", "size": "medium"},
	"postcode": "SW1A 1AA"
}`

type fakeUseCase struct {
	executeFunc func(req *createBooking.Request) (*createBooking.Response, error)
}

func (f *fakeUseCase) Execute(_ context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	return f.executeFunc(req)
}

func post(uc CreateBookingUseCase, body string, actor *domain.Actor) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	NewHandler(uc, logger.Discard()).Handle(rec, req)
	return rec
}

func TestHandle_AnonymousCreated(t *testing.T) {
	var got *createBooking.Request
	expires := time.Date(2025, 6, 5, 8, 0, 0, 0, time.UTC)
	uc := &fakeUseCase{executeFunc: func(req *createBooking.Request) (*createBooking.Response, error) {
		got = req
		return &createBooking.Response{
			Booking: &domain.Booking{
				ID:            10,
				Reference:     "DT-ABC234",
				Status:        domain.StatusPending,
				BookingDate:   req.Date,
				StartTime:     req.StartTime,
				CustomerName:  req.Customer.Name,
				CustomerEmail: req.Customer.Email,
			},
			PaymentIntentID: "pi_mock_1",
			AccountCreated:  true,
			PasswordSetup:   &accounts.SetupToken{UserID: 5, Token: "setup-tok", ExpiresAt: expires},
		}, nil
	}}

	rec := post(uc, validBody, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, got)
	assert.True(t, got.Actor.IsAnonymous())
	assert.Equal(t, types.MustTimeString("10:00"), got.StartTime)
	assert.Equal(t, "tok-1", got.LockToken)
	assert.Equal(t, "AB12 CDE", got.Vehicle.Registration)

	var body struct {
		Data CreateBookingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DT-ABC234", body.Data.Booking.Reference)
	assert.Equal(t, "2025-06-03", body.Data.Booking.BookingDate)
	assert.Equal(t, "pi_mock_1", body.Data.PaymentIntentID)
	assert.True(t, body.Data.AccountCreated)
	require.NotNil(t, body.Data.PasswordSetup)
	assert.Equal(t, "setup-tok", body.Data.PasswordSetup.Token)
}

func TestHandle_PassesActor(t *testing.T) {
	var got domain.Actor
	uc := &fakeUseCase{executeFunc: func(req *createBooking.Request) (*createBooking.Response, error) {
		got = req.Actor
		return &createBooking.Response{Booking: &domain.Booking{ID: 1}}, nil
	}}

	rec := post(uc, validBody, &domain.Actor{UserID: 7, Role: domain.RoleCustomer})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(7), got.UserID)
	assert.NotContains(t, rec.Body.String(), "password_setup")
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		ucErr      error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"malformed json", `{"date":`, nil, http.StatusBadRequest, "", msgInvalidRequestBody},
		{"bad date", strings.Replace(validBody, "2025-06-03", "03/06/2025", 1), nil, http.StatusBadRequest, "", msgInvalidDateTime},
		{"bad time", strings.Replace(validBody, `"10:00"`, `"10am"`, 1), nil, http.StatusBadRequest, "", msgInvalidDateTime},
		{"validation", validBody, fmt.Errorf("%w: name is required", createBooking.ErrValidation), http.StatusBadRequest, "", msgValidationFailed},
		{"slot unavailable", validBody, createBooking.ErrSlotUnavailable, http.StatusConflict, handlers.CodeSlotUnavailable, msgSlotUnavailable},
		{"account exists", validBody, createBooking.ErrAccountExists, http.StatusConflict, handlers.CodeAccountExists, msgAccountExists},
		{"invalid vehicle", validBody, createBooking.ErrInvalidVehicle, http.StatusBadRequest, "", msgInvalidVehicle},
		{"persistence", validBody, createBooking.ErrPersistence, http.StatusInternalServerError, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUseCase{executeFunc: func(*createBooking.Request) (*createBooking.Response, error) {
				return nil, tt.ucErr
			}}
			rec := post(uc, tt.body, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var env handlers.Envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tt.wantCode, env.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, env.Error)
			}
			assert.NotContains(t, env.Error, "invalid")
			assert.NotContains(t, env.Error, "validation")
		})
	}
}
