package reservation

import (
	"errors"
	"fmt"
)

// Outcome categories. Every error returned by the Service either wraps one of these or is an
// internal failure.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrMissingInput = fmt.Errorf("%w: missing input", ErrValidation)
	ErrInvalidDates = fmt.Errorf("%w: check_out must be after check_in", ErrValidation)

	ErrRoomNotFound        = fmt.Errorf("room %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)

	ErrRoomUnavailable    = fmt.Errorf("%w: room is not available", ErrConflict)
	ErrNotAwaitingPayment = fmt.Errorf("%w: room is not waiting for payment", ErrConflict)
	ErrAlreadyPaid        = fmt.Errorf("%w: reservation already paid", ErrConflict)
	ErrAlreadyNoted       = fmt.Errorf("%w: reservation already closed", ErrConflict)
)

// isOutcome reports whether err is an expected business outcome rather than a failure.
func isOutcome(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}
