package domain

import "time"

// User is a persisted customer or admin identity
type User struct {
	ID           int64
	Email        string
	Name         string
	Phone        *string
	PasswordHash *string // Nil until the deferred password setup is completed
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword returns true if the account can sign in
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// PasswordSetupToken deferred password setup for accounts created by a booking
type PasswordSetupToken struct {
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsUsable reports whether the token may still be redeemed
func (t *PasswordSetupToken) IsUsable(now time.Time) bool {
	return t.UsedAt == nil && t.ExpiresAt.After(now)
}
