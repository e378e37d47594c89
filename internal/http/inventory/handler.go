package inventory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/innkeeper/internal/inventory"
)

const maxUploadSize = 10 << 20

type Handler struct {
	svc *inventory.Service
}

func NewHandler(svc *inventory.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/import", h.importRooms)
}

type importResponse struct {
	Parsed int `json:"parsed"`
	Added  int `json:"added"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) importRooms(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to parse form: " + err.Error()})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file field is required"})
		return
	}
	defer file.Close()

	result, err := h.svc.Import(r.Context(), file)
	if err != nil {
		if errors.Is(err, inventory.ErrNoRooms) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		slog.Error("room import failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to import rooms"})

		return
	}

	writeJSON(w, http.StatusCreated, importResponse{Parsed: result.Parsed, Added: result.Added})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
