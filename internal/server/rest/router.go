package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the API under /api/v1 plus /health and /metrics.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(Recovery(h.logger))
	r.Use(CORS(corsOrigins))
	r.Use(Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusNotFound, "Route not found")
	})

	r.Get("/health/live", h.live)
	r.Get("/health/ready", h.ready)
	r.Handle("/metrics", promhttp.Handler())

	gate := Authenticate(h.sessions, h.logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/access-token", h.accessToken)

			r.Group(func(r chi.Router) {
				r.Use(gate)
				r.Post("/logout", h.logout)
				r.Get("/logout-all", h.logoutAll)
			})
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(gate)
			r.Get("/", h.listBooks)
			r.Get("/search", h.searchBooks)
			r.Post("/borrow", h.borrowBook)
			r.Post("/return", h.returnBook)
			r.Get("/borrowed", h.borrowedBooks)
		})
	})

	return r
}
