package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/innkeeper/internal/http/inventory"
	"github.com/MrJamesThe3rd/innkeeper/internal/http/ratelimit"
	"github.com/MrJamesThe3rd/innkeeper/internal/http/reservation"
)

func New(
	reservationsV1 *reservation.Handler,
	inventoryV1 *inventory.Handler,
	limiter *ratelimit.Limiter,
	allowedOrigins []string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/health", health)

	router.Route("/api/v1", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		r.Route("/reservations", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			reservationsV1.Routes(r)
		})

		r.Route("/rooms", func(r chi.Router) {
			reservationsV1.RoomRoutes(r)
			inventoryV1.Routes(r)
		})
	})

	return router
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
