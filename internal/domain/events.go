package domain

import "time"

// ChangeType kind of row change in the change feed
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change feed tables
const (
	TableSlots    = "slots"
	TableBookings = "bookings"
)

// ChangeEvent {event_type, table, old, new} pushed to connected clients
type ChangeEvent struct {
	EventType  ChangeType  `json:"event_type"`
	Table      string      `json:"table"`
	Old        interface{} `json:"old,omitempty"`
	New        interface{} `json:"new,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}
