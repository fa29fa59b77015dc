package acquire_lock

import (
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

type AcquireLockRequest struct {
	SlotKey string `json:"slot_key"` // "2025-06-02T10:00"
}

// LockResponse токен передается в POST /bookings как lock_token
type LockResponse struct {
	SlotKey   string    `json:"slot_key"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func fromDomainLock(l *domain.Lock) *LockResponse {
	return &LockResponse{
		SlotKey:   l.SlotKey.String(),
		Token:     l.Token,
		ExpiresAt: l.ExpiresAt,
	}
}
