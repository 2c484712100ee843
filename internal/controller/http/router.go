package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handlers interface {
	Ping(w http.ResponseWriter, r *http.Request)
	GetRuns(w http.ResponseWriter, r *http.Request)
	GetLastRun(w http.ResponseWriter, r *http.Request)
	GetRun(w http.ResponseWriter, r *http.Request)
	TriggerRun(w http.ResponseWriter, r *http.Request)
}

// InitRoutes mounts the admin API. authMiddleware guards /api/runs when not nil,
// health and metrics stay public.
func InitRoutes(r *chi.Mux, h Handlers, metrics http.Handler, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r.Get("/healthz", h.Ping)

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api/runs", func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Get("/", h.GetRuns)
		r.Post("/", h.TriggerRun)
		r.Get("/last", h.GetLastRun)
		r.Get("/{id}", h.GetRun)
	})

	return r
}
