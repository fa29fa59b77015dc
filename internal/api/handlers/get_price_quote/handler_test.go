package get_price_quote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/api/middleware"
	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/pricing"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
)

type fakePricing struct {
	quoteFunc func(req pricing.QuoteRequest) (*domain.PriceBreakdown, error)
}

func (f *fakePricing) Quote(_ context.Context, req pricing.QuoteRequest) (*domain.PriceBreakdown, error) {
	return f.quoteFunc(req)
}

func TestHandle_Quote(t *testing.T) {
	var got pricing.QuoteRequest
	svc := &fakePricing{quoteFunc: func(req pricing.QuoteRequest) (*domain.PriceBreakdown, error) {
		got = req
		return &domain.PriceBreakdown{
			ServiceID:            req.ServiceID,
			VehicleSize:          domain.VehicleSizeLarge,
			ServicePricePence:    7000,
			TravelSurchargePence: 1000,
			Tier:                 domain.TierSilver,
			DiscountPercent:      10,
			DiscountPence:        700,
			TotalPence:           7300,
		}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/quote?service_id=2&vehicle_size=large&distance_miles=12.5", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: 42, Role: domain.RoleCustomer}))

	rec := httptest.NewRecorder()
	NewHandler(svc, "", logger.Discard()).Handle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), got.ServiceID)
	assert.Equal(t, "large", got.VehicleSize)
	require.NotNil(t, got.DistanceMiles)
	assert.InDelta(t, 12.5, *got.DistanceMiles, 0.0001)
	require.NotNil(t, got.UserID)
	assert.Equal(t, int64(42), *got.UserID)

	var body struct {
		Data QuoteResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(7300), body.Data.TotalPricePence)
	assert.Equal(t, "GBP", body.Data.Currency)
	assert.Equal(t, string(domain.TierSilver), body.Data.LoyaltyTier)
}

func TestHandle_AnonymousHasNoUser(t *testing.T) {
	var got pricing.QuoteRequest
	svc := &fakePricing{quoteFunc: func(req pricing.QuoteRequest) (*domain.PriceBreakdown, error) {
		got = req
		return &domain.PriceBreakdown{ServiceID: req.ServiceID}, nil
	}}

	rec := httptest.NewRecorder()
	NewHandler(svc, "GBP", logger.Discard()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pricing/quote?service_id=1&postcode=SW1A1AA", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got.UserID)
	require.NotNil(t, got.Postcode)
	assert.Equal(t, "SW1A1AA", *got.Postcode)
}

func TestHandle_UserIDOverride(t *testing.T) {
	var got pricing.QuoteRequest
	svc := &fakePricing{quoteFunc: func(req pricing.QuoteRequest) (*domain.PriceBreakdown, error) {
		got = req
		return &domain.PriceBreakdown{ServiceID: req.ServiceID}, nil
	}}

	quote := func(actor domain.Actor) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/quote?service_id=1&user_id=77", nil)
		req = req.WithContext(middleware.WithActor(req.Context(), actor))
		rec := httptest.NewRecorder()
		NewHandler(svc, "GBP", logger.Discard()).Handle(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	quote(domain.Actor{UserID: 1, Role: domain.RoleAdmin})
	require.NotNil(t, got.UserID)
	assert.Equal(t, int64(77), *got.UserID)

	// Клиент не может подставить чужой user_id
	quote(domain.Actor{UserID: 5, Role: domain.RoleCustomer})
	require.NotNil(t, got.UserID)
	assert.Equal(t, int64(5), *got.UserID)

	quote(domain.Actor{})
	assert.Nil(t, got.UserID)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		svcErr     error
		wantStatus int
	}{
		{"missing service", "vehicle_size=small", nil, http.StatusBadRequest},
		{"bad user", "service_id=1&user_id=me", nil, http.StatusBadRequest},
		{"bad distance", "service_id=1&distance_miles=far", nil, http.StatusBadRequest},
		{"negative distance", "service_id=1&distance_miles=-3", nil, http.StatusBadRequest},
		{"invalid input", "service_id=1", pricing.ErrInvalidInput, http.StatusBadRequest},
		{"service not found", "service_id=99", pricing.ErrServiceNotFound, http.StatusNotFound},
		{"unknown postcode", "service_id=1&postcode=ZZ1", pricing.ErrUnknownPostcode, http.StatusBadRequest},
		{"internal", "service_id=1", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePricing{quoteFunc: func(pricing.QuoteRequest) (*domain.PriceBreakdown, error) { return nil, tt.svcErr }}
			rec := httptest.NewRecorder()
			NewHandler(svc, "GBP", logger.Discard()).Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pricing/quote?"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
