package domain

import "time"

// Lock is a short-lived advisory reservation of a slot during checkout
type Lock struct {
	SlotKey   SlotKey
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the lock no longer holds the slot
func (l *Lock) IsExpired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}
