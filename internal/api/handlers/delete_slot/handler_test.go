package delete_slot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/service/schedule"
	"github.com/m04kA/SMC-DetailingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
)

type fakeService struct {
	deleteFunc func(slotID int64) (*models.DeleteSlotResponse, error)
}

func (f *fakeService) DeleteSlot(_ context.Context, slotID int64) (*models.DeleteSlotResponse, error) {
	return f.deleteFunc(slotID)
}

func TestHandle_SoftBlock(t *testing.T) {
	svc := &fakeService{deleteFunc: func(slotID int64) (*models.DeleteSlotResponse, error) {
		return &models.DeleteSlotResponse{SlotID: slotID, SoftBlocked: true}, nil
	}}

	rec := httptest.NewRecorder()
	NewHandler(svc, logger.Discard()).Handle(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/schedule?slot_id=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data models.DeleteSlotResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Data.SlotID)
	assert.True(t, body.Data.SoftBlocked)
	assert.False(t, body.Data.Deleted)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		svcErr     error
		wantStatus int
	}{
		{"missing id", "", nil, http.StatusBadRequest},
		{"bad id", "slot_id=abc", nil, http.StatusBadRequest},
		{"negative id", "slot_id=-1", nil, http.StatusBadRequest},
		{"not found", "slot_id=4", schedule.ErrSlotNotFound, http.StatusNotFound},
		{"internal", "slot_id=4", schedule.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{deleteFunc: func(int64) (*models.DeleteSlotResponse, error) { return nil, tt.svcErr }}
			rec := httptest.NewRecorder()
			NewHandler(svc, logger.Discard()).Handle(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/schedule?"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
