package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexanderramin/sitetrack/internal/contract"
	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/logger"
	"github.com/alexanderramin/sitetrack/internal/service"
	"github.com/go-chi/chi/v5"
)

// Pinger reports database reachability for /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services groups the use cases the API exposes.
type Services struct {
	Progress  service.ProgressService
	Plots     service.PlotService
	Dashboard service.DashboardService
	Reference service.ReferenceService
}

// Handler implements the API handlers.
type Handler struct {
	svc     Services
	db      Pinger
	log     *logger.Logger
	version string
	now     func() time.Time
}

func NewHandler(svc Services, db Pinger, log *logger.Logger, version string) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		svc:     svc,
		db:      db,
		log:     log,
		version: version,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.log.Error("health check failed", "error", err)
			WriteProblem(w, r, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Version: h.version})
}

// ListMaps handles GET /api/v1/maps.
func (h *Handler) ListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := h.svc.Reference.ListMaps(r.Context())
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	out := make([]contract.MapView, 0, len(maps))
	for _, m := range maps {
		out = append(out, contract.MapView{
			ID: m.ID, Name: m.Name, Slug: m.Slug, ImagePath: m.ImagePath,
			NaturalWidth: m.NaturalWidth, NaturalHeight: m.NaturalHeight,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// MapSummary handles GET /api/v1/maps/{slug}.
func (h *Handler) MapSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Dashboard.MapSummary(r.Context(), chi.URLParam(r, "slug"), h.now())
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Matrix handles GET /api/v1/maps/{slug}/matrix.
func (h *Handler) Matrix(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Dashboard.Matrix(r.Context(), chi.URLParam(r, "slug"), h.now())
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPlots handles GET /api/v1/plots, optionally filtered by ?mapId=.
func (h *Handler) ListPlots(w http.ResponseWriter, r *http.Request) {
	var (
		plots []*domain.Plot
		err   error
	)
	if mapID := r.URL.Query().Get("mapId"); mapID != "" {
		plots, err = h.svc.Plots.ListByMap(r.Context(), mapID)
	} else {
		plots, err = h.svc.Plots.List(r.Context())
	}
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	out := make([]plotView, 0, len(plots))
	for _, p := range plots {
		out = append(out, newPlotView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePlot handles POST /api/v1/plots. The map may be given by id or slug.
func (h *Handler) CreatePlot(w http.ResponseWriter, r *http.Request) {
	var body createPlotPayload
	if !decodeJSON(w, r, &body) {
		return
	}
	mapID := body.MapID
	if mapID == "" && body.MapSlug != "" {
		m, err := h.svc.Reference.GetMap(r.Context(), body.MapSlug)
		if err != nil {
			MapServiceError(w, r, h.log, err)
			return
		}
		mapID = m.ID
	}
	if mapID == "" {
		WriteProblem(w, r, http.StatusBadRequest, "mapId or mapSlug is required")
		return
	}

	p := body.toPlot(mapID)
	if err := h.svc.Plots.Create(r.Context(), p); err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPlotView(p))
}

// PlotDetail handles GET /api/v1/plots/{id}.
func (h *Handler) PlotDetail(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Dashboard.PlotDetail(r.Context(), chi.URLParam(r, "id"), h.now())
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecordProgress handles POST /api/v1/construction-progress. It answers 201
// when the row was created and 200 when an existing row was updated.
func (h *Handler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	var body recordProgressPayload
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.PlotID == "" || body.StageID == "" {
		WriteProblem(w, r, http.StatusBadRequest, "plotId and stageId are required")
		return
	}
	req, err := body.toRequest()
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.svc.Progress.Record(r.Context(), req)
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// SetCompletion handles PATCH /api/v1/construction-progress.
func (h *Handler) SetCompletion(w http.ResponseWriter, r *http.Request) {
	var body setCompletionPayload
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.PlotID == "" || body.StageID == "" || body.CompletionPercentage == nil {
		WriteProblem(w, r, http.StatusBadRequest, "plotId, stageId, and completionPercentage are required")
		return
	}

	resp, err := h.svc.Progress.SetCompletion(r.Context(), body.PlotID, body.StageID, *body.CompletionPercentage)
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ProgressHistory handles GET /api/v1/construction-progress/{id}/history.
func (h *Handler) ProgressHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.Progress.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	out := make([]contract.PlanHistoryView, 0, len(history))
	for _, hist := range history {
		out = append(out, contract.NewPlanHistoryView(hist))
	}
	writeJSON(w, http.StatusOK, out)
}

// ListConstructionTypes handles GET /api/v1/construction-types.
func (h *Handler) ListConstructionTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.Reference.ListConstructionTypes(r.Context())
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	out := make([]constructionTypeView, 0, len(types))
	for _, t := range types {
		out = append(out, newConstructionTypeView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// ListHomebuilders handles GET /api/v1/homebuilders.
func (h *Handler) ListHomebuilders(w http.ResponseWriter, r *http.Request) {
	hbs, err := h.svc.Reference.ListHomebuilders(r.Context())
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	out := make([]namedView, 0, len(hbs))
	for _, hb := range hbs {
		out = append(out, namedView{ID: hb.ID, Name: hb.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListUnitTypes handles GET /api/v1/unit-types.
func (h *Handler) ListUnitTypes(w http.ResponseWriter, r *http.Request) {
	uts, err := h.svc.Reference.ListUnitTypes(r.Context())
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	out := make([]namedView, 0, len(uts))
	for _, u := range uts {
		out = append(out, namedView{ID: u.ID, Name: u.Name, Description: u.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListSalesUpdates handles GET /api/v1/sales-updates?plotId=.
func (h *Handler) ListSalesUpdates(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Reference.ListSalesUpdates(r.Context(), r.URL.Query().Get("plotId"))
	if err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	out := make([]salesUpdateView, 0, len(list))
	for _, su := range list {
		out = append(out, newSalesUpdateView(su))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateSalesUpdate handles POST /api/v1/sales-updates.
func (h *Handler) CreateSalesUpdate(w http.ResponseWriter, r *http.Request) {
	var body salesUpdatePayload
	if !decodeJSON(w, r, &body) {
		return
	}
	su, err := body.toSalesUpdate()
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Reference.CreateSalesUpdate(r.Context(), su); err != nil {
		MapServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSalesUpdateView(su))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON at offset %d", syntaxErr.Offset))
			return false
		}
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
