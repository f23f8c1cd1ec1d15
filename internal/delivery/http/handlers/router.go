package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/attribution/v1", func(r chi.Router) {
		r.Use(h.visitorMiddleware)
		r.Post("/visits", h.trackVisit)
		r.Get("/current", h.currentAttribution)
		r.Delete("/{channel}", h.clearAttribution)
	})

	return r
}
