package reservation

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

type Handler struct {
	svc *reservation.Service
}

func NewHandler(svc *reservation.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Post("/confirm", h.confirm)
	r.Post("/cancel", h.cancel)
	r.Get("/{id}", h.get)
}

func (h *Handler) RoomRoutes(r chi.Router) {
	r.Get("/", h.listRooms)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || validate.Struct(req) != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}

	checkIn, err := parseDate(*req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidDate)
		return
	}

	checkOut, err := parseDate(*req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidDate)
		return
	}

	res, err := h.svc.Create(r.Context(), reservation.CreateParams{
		RoomID:   int64(*req.RoomID),
		CheckIn:  checkIn,
		CheckOut: checkOut,
	})
	if err != nil {
		writeFailure(w, createFailure(err))
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{
		Reservation: toResponse(res),
		Message:     "Reservation created! Please pay within 1 hour.",
	})
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeReservationID(w, r)
	if !ok {
		return
	}

	conf, err := h.svc.Confirm(r.Context(), id)
	if err != nil {
		writeFailure(w, confirmFailure(err))
		return
	}

	writeJSON(w, http.StatusCreated, confirmResponse{
		ReservationID: conf.ReservationID,
		Payment:       "Confirmed",
		PaidAt:        conf.PaidAt,
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := decodeReservationID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Cancel(r.Context(), id); err != nil {
		writeFailure(w, cancelFailure(err))
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Reservation canceled"})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	res, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, getFailure(err))
		return
	}

	writeJSON(w, http.StatusOK, toResponse(res))
}

type roomResponse struct {
	ID         int64  `json:"id"`
	Status     int    `json:"status"`
	StatusName string `json:"status_name"`
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.svc.ListRooms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rooms")
		return
	}

	resp := make([]roomResponse, len(rooms))
	for i, room := range rooms {
		resp[i] = roomResponse{ID: room.ID, Status: int(room.Status), StatusName: room.Status.String()}
	}

	writeJSON(w, http.StatusOK, resp)
}

func decodeReservationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var req reservationIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || validate.Struct(req) != nil {
		writeError(w, http.StatusBadRequest, msgInvalidInput)
		return 0, false
	}

	return int64(*req.ReservationID), true
}
