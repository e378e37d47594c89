package reservation

import (
	"errors"
	"net/http"

	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

const (
	msgInvalidInput = "Input Validation Error"
	msgInvalidDate  = "Date validation error"
	msgResNotFound  = "Reservation not found"
)

// failure is the status and message a client sees for a service error.
type failure struct {
	status int
	msg    string
}

// Each operation maps the service's outcome categories onto a failure.
// Anything that is not a known outcome is a 500 with the operation's failure message.

func createFailure(err error) failure {
	switch {
	case errors.Is(err, reservation.ErrInvalidDates):
		return failure{http.StatusBadRequest, msgInvalidDate}
	case errors.Is(err, reservation.ErrValidation):
		return failure{http.StatusBadRequest, msgInvalidInput}
	case errors.Is(err, reservation.ErrNotFound):
		return failure{http.StatusNotFound, "Room not found"}
	case errors.Is(err, reservation.ErrConflict):
		return failure{http.StatusConflict, "Conflict, Room is not available"}
	}

	return failure{http.StatusInternalServerError, "Failed to create reservation"}
}

func confirmFailure(err error) failure {
	switch {
	case errors.Is(err, reservation.ErrValidation):
		return failure{http.StatusBadRequest, msgInvalidInput}
	case errors.Is(err, reservation.ErrNotFound):
		return failure{http.StatusNotFound, msgResNotFound}
	case errors.Is(err, reservation.ErrAlreadyPaid):
		return failure{http.StatusConflict, "Conflict, Reservation already paid"}
	case errors.Is(err, reservation.ErrAlreadyNoted):
		return failure{http.StatusConflict, "Conflict, Reservation already closed"}
	case errors.Is(err, reservation.ErrConflict):
		return failure{http.StatusConflict, "Conflict, Room is not waiting for payment"}
	}

	return failure{http.StatusInternalServerError, "Failed to confirm the reservation"}
}

func cancelFailure(err error) failure {
	switch {
	case errors.Is(err, reservation.ErrValidation):
		return failure{http.StatusBadRequest, msgInvalidInput}
	case errors.Is(err, reservation.ErrNotFound):
		return failure{http.StatusNotFound, msgResNotFound}
	}

	return failure{http.StatusInternalServerError, "Failed to cancel the reservation"}
}

func getFailure(err error) failure {
	switch {
	case errors.Is(err, reservation.ErrValidation):
		return failure{http.StatusBadRequest, msgInvalidInput}
	case errors.Is(err, reservation.ErrNotFound):
		return failure{http.StatusNotFound, msgResNotFound}
	}

	return failure{http.StatusInternalServerError, "Failed to get the reservation"}
}
