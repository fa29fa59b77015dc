package release_lock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/locks"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
)

type fakeLocks struct {
	releaseFunc func(key domain.SlotKey) error
}

func (f *fakeLocks) Release(_ context.Context, key domain.SlotKey) error {
	return f.releaseFunc(key)
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"released", nil, http.StatusNoContent},
		{"bad key", locks.ErrInvalidSlotKey, http.StatusBadRequest},
		{"store down", locks.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.SlotKey
			svc := &fakeLocks{releaseFunc: func(key domain.SlotKey) error {
				got = key
				return tt.svcErr
			}}
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/locks/2025-06-02T10:00", nil)
			req = mux.SetURLVars(req, map[string]string{"slotKey": "2025-06-02T10:00"})

			rec := httptest.NewRecorder()
			NewHandler(svc, logger.Discard()).Handle(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, domain.SlotKey("2025-06-02T10:00"), got)
		})
	}
}
