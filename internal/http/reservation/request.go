package reservation

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	errBadDate = errors.New("unrecognised date")
	errBadID   = errors.New("id is not an integer")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Pointer fields let validation tell a missing value apart from a zero one.
type createRequest struct {
	RoomID   *numericID `json:"room_id" validate:"required,gt=0"`
	CheckIn  *string    `json:"check_in" validate:"required,min=1"`
	CheckOut *string    `json:"check_out" validate:"required,min=1"`
}

type reservationIDRequest struct {
	ReservationID *numericID `json:"reservation_id" validate:"required,gt=0"`
}

// numericID decodes from a JSON number or a string holding one, so form-encoded clients
// that send "101" are accepted.
type numericID int64

func (n *numericID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errBadID
	}

	*n = numericID(v)

	return nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp, which is truncated to its date.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errBadDate
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
