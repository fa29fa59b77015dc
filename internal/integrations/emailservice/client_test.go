package emailservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/pkg/logger"
)

func TestClient_Send(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/internal/emails", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bookings@detailing.local", time.Second, logger.Discard())
	err := c.Send(context.Background(), Message{
		Type:         TypeBookingConfirmation,
		To:           "jane@example.com",
		TemplateData: map[string]interface{}{"reference": "DT-ABC123"},
	})

	require.NoError(t, err)
	assert.Equal(t, TypeBookingConfirmation, got.Type)
	assert.Equal(t, "bookings@detailing.local", got.From)
	assert.Equal(t, "DT-ABC123", got.TemplateData["reference"])
}

func TestClient_SendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, logger.Discard())
	err := c.Send(context.Background(), Message{Type: TypeBookingCancellation, To: "jane@example.com"})
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	err = c.Send(context.Background(), Message{Type: TypeBookingCancellation})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(logger.Discard())
	assert.NoError(t, s.Send(context.Background(), Message{Type: TypePasswordSetup, To: "a@b.c"}))
}
