package reservation

import (
	"fmt"
	"time"
)

// RoomStatus is the lifecycle stage of a room. The stored values are fixed by the schema.
type RoomStatus int

const (
	RoomAvailable      RoomStatus = 0
	RoomPendingPayment RoomStatus = 1
	RoomPaid           RoomStatus = 2
)

// ParseRoomStatus converts a stored status into a RoomStatus, rejecting unknown values.
func ParseRoomStatus(v int) (RoomStatus, error) {
	switch s := RoomStatus(v); s {
	case RoomAvailable, RoomPendingPayment, RoomPaid:
		return s, nil
	}

	return 0, fmt.Errorf("unknown room status %d", v)
}

func (s RoomStatus) String() string {
	switch s {
	case RoomAvailable:
		return "available"
	case RoomPendingPayment:
		return "pending_payment"
	case RoomPaid:
		return "paid"
	}

	return fmt.Sprintf("RoomStatus(%d)", int(s))
}

// Notes written to Reservation.Noted. A reservation is never deleted.
const (
	NoteCancel  = "cancel"
	NoteExpired = "expired"
)

// Room is a bookable room. Status is the single source of truth for availability.
type Room struct {
	ID        int64
	Status    RoomStatus
	CreatedAt time.Time
}

// Reservation references a room; many reservations may reference one room over time.
type Reservation struct {
	ID        int64
	RoomID    int64
	CheckIn   time.Time
	CheckOut  time.Time
	PaidAt    *time.Time // nil while unpaid
	Noted     string
	CreatedAt time.Time
}

// LockedReservation is the result of a locking read of a reservation joined with its room.
type LockedReservation struct {
	Reservation
	RoomStatus RoomStatus
}

// Confirmation acknowledges a successful payment confirmation.
type Confirmation struct {
	ReservationID int64
	RoomID        int64
	PaidAt        time.Time
}
