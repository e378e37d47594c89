package reservation

import "time"

type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventConfirmed EventType = "reservation.confirmed"
	EventCancelled EventType = "reservation.cancelled"
	EventExpired   EventType = "reservation.expired"
)

// Event describes a committed lifecycle transition.
type Event struct {
	Type          EventType
	ReservationID int64
	RoomID        int64
	OccurredAt    time.Time
}
