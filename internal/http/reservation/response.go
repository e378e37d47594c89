package reservation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

type reservationResponse struct {
	ID        int64      `json:"id"`
	RoomID    int64      `json:"room_id"`
	CheckIn   string     `json:"check_in"`
	CheckOut  string     `json:"check_out"`
	PaidAt    *time.Time `json:"paid_at"`
	Noted     *string    `json:"noted"`
	CreatedAt time.Time  `json:"created_at"`
}

type createResponse struct {
	Reservation reservationResponse `json:"reservation"`
	Message     string              `json:"message"`
}

type confirmResponse struct {
	ReservationID int64     `json:"reservation_id"`
	Payment       string    `json:"payment"`
	PaidAt        time.Time `json:"paid_at"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(res *reservation.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:        res.ID,
		RoomID:    res.RoomID,
		CheckIn:   res.CheckIn.Format(time.DateOnly),
		CheckOut:  res.CheckOut.Format(time.DateOnly),
		PaidAt:    res.PaidAt,
		CreatedAt: res.CreatedAt,
	}

	if res.Noted != "" {
		resp.Noted = new(res.Noted)
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeFailure(w http.ResponseWriter, f failure) {
	writeError(w, f.status, f.msg)
}
