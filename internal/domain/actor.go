package domain

// Actor identity of the caller as passed by the gateway
// UserID is zero for anonymous callers
type Actor struct {
	UserID int64
	Role   string
}

// IsAdmin reports whether the caller may manage any booking
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsAnonymous reports whether the caller has no account
func (a Actor) IsAnonymous() bool {
	return a.UserID == 0
}

// CanAccessUser reports whether the caller may read data of the user
func (a Actor) CanAccessUser(userID int64) bool {
	return a.IsAdmin() || (!a.IsAnonymous() && a.UserID == userID)
}

// CanAccessBooking reports whether the caller owns the booking or is an admin
func (a Actor) CanAccessBooking(b *Booking) bool {
	return a.IsAdmin() || (!a.IsAnonymous() && b.IsOwnedBy(a.UserID))
}
