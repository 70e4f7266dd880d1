// Package api exposes a small local control surface over the briefing
// runner: health, manual runs, the latest briefing, and the source list.
package api

import (
	"github.com/go-chi/chi/v5"

	"coinbrief/internal/models"
)

// NewRouter creates and configures the HTTP router with all control
// endpoints.
func NewRouter(br BriefingRunner, sources []models.Source) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)

	r.Get("/healthz", Healthz())

	r.Route("/api", func(api chi.Router) {
		api.Post("/run", TriggerRun(br))
		api.Get("/briefing/latest", GetLatestBriefing(br))
		api.Get("/sources", GetSources(sources))
	})

	return r
}
