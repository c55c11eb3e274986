package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates the router with every route configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(h.log))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Get("/maps", h.ListMaps)
		r.Get("/maps/{slug}", h.MapSummary)
		r.Get("/maps/{slug}/matrix", h.Matrix)

		r.Get("/plots", h.ListPlots)
		r.Post("/plots", h.CreatePlot)
		r.Get("/plots/{id}", h.PlotDetail)

		r.Post("/construction-progress", h.RecordProgress)
		r.Patch("/construction-progress", h.SetCompletion)
		r.Get("/construction-progress/{id}/history", h.ProgressHistory)

		r.Get("/construction-types", h.ListConstructionTypes)
		r.Get("/homebuilders", h.ListHomebuilders)
		r.Get("/unit-types", h.ListUnitTypes)

		r.Get("/sales-updates", h.ListSalesUpdates)
		r.Post("/sales-updates", h.CreateSalesUpdate)
	})

	return r
}
