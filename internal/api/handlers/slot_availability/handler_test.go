package slot_availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/locks"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
)

type fakeLocks struct {
	available bool
	err       error
}

func (f *fakeLocks) IsAvailable(context.Context, domain.SlotKey) (bool, error) {
	return f.available, f.err
}

func get(svc LockService, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/locks/"+key+"/availability", nil)
	req = mux.SetURLVars(req, map[string]string{"slotKey": key})
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.Discard()).Handle(rec, req)
	return rec
}

func TestHandle(t *testing.T) {
	for _, available := range []bool{true, false} {
		rec := get(&fakeLocks{available: available}, "2025-06-02T10:00")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data AvailabilityResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, available, body.Data.Available)
		assert.Equal(t, "2025-06-02T10:00", body.Data.SlotKey)
	}
}

func TestHandle_Errors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, get(&fakeLocks{err: locks.ErrInvalidSlotKey}, "x").Code)
	assert.Equal(t, http.StatusNotFound, get(&fakeLocks{err: locks.ErrSlotNotFound}, "2025-06-02T10:00").Code)
	assert.Equal(t, http.StatusInternalServerError, get(&fakeLocks{err: locks.ErrInternal}, "2025-06-02T10:00").Code)
}
