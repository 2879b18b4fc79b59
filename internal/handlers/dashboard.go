package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/services"
)

type DashboardHandler struct {
	tracker *services.Tracker
	log     *logger.Logger
}

func NewDashboardHandler(tracker *services.Tracker, log *logger.Logger) *DashboardHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DashboardHandler{tracker: tracker, log: log}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	d, err := h.tracker.Dashboard(r.Context())
	if err != nil {
		h.log.Error("dashboard failed", "error", err)
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DashboardHandler) Streak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.tracker.Streak(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"streak": streak})
}

func (h *DashboardHandler) Accountability(w http.ResponseWriter, r *http.Request) {
	d, err := h.tracker.Dashboard(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accountability":   d.Accountability,
		"milestone":        d.Milestone,
		"progress_percent": d.ProgressPercent,
	})
}

// Chart serves /charts/{name} as JSON, or as a PNG when the name ends in ".png".
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	asPNG := strings.HasSuffix(name, ".png")
	name = strings.TrimSuffix(name, ".png")

	sessions, err := h.tracker.LoadOrderedSessions(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	chart, err := services.BuildChart(name, sessions)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if !asPNG {
		writeJSON(w, http.StatusOK, chart)
		return
	}

	img, err := services.RenderChartPNG(chart)
	if err != nil {
		h.log.Error("render chart failed", "chart", name, "error", err)
		handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

func (h *DashboardHandler) ListCharts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"charts": services.ChartNames})
}
