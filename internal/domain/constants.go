package domain

// Defaults of the weekly template
const (
	DefaultSlotDurationMinutes = 30
	DefaultSlotCapacity        = 1
)

// Business validation constants
const (
	MinSlotDurationMinutes      = 15
	MaxSlotDurationMinutes      = 480 // 8 hours
	MinSlotCapacity             = 1
	MaxSlotCapacity             = 20
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
	MaxBlockReasonLength        = 200
	MaxNameLength               = 100
	MaxRegistrationLength       = 10
	MinPasswordLength           = 8
)

// Booking reference format: DT-XXXXXX
const (
	ReferencePrefix   = "DT-"
	ReferenceLength   = 6
	ReferenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Roles passed by the gateway in X-User-Role
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// ActiveStatuses statuses that hold slot capacity
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
}
