package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"staticnews/pkg/config"
	"staticnews/pkg/model"
	"staticnews/pkg/pipeline"
	"staticnews/pkg/store"
)

// StatusHandler serves the on-air and schedule views.
type StatusHandler struct {
	orch     *pipeline.Orchestrator
	schedule *config.ScheduleConfig
	history  store.HistoryStore
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(orch *pipeline.Orchestrator, sched *config.ScheduleConfig, history store.HistoryStore) *StatusHandler {
	return &StatusHandler{orch: orch, schedule: sched, history: history}
}

type onAirResponse struct {
	Active *model.SubSegmentInstance `json:"active"`
	OnAir  *model.RenderedSegment    `json:"on_air"`
}

// HandleOnAir returns the active subsegment and the last presented
// render.
func (h *StatusHandler) HandleOnAir(w http.ResponseWriter, r *http.Request) {
	resp := onAirResponse{
		Active: h.orch.ActiveInstance(),
		OnAir:  h.orch.OnAir(),
	}
	writeJSON(w, resp)
}

type scheduleResponse struct {
	Now     time.Time               `json:"now"`
	Segment *model.Segment          `json:"segment"`
	Next    *model.Segment          `json:"next"`
	Recent  []store.BroadcastRecord `json:"recent"`
}

// HandleSchedule returns the current hour's programming, the next
// hour's, and recently aired segments.
func (h *StatusHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	resp := scheduleResponse{
		Now:     now,
		Segment: h.schedule.SegmentFor(now.Hour()),
		Next:    h.schedule.SegmentFor((now.Hour() + 1) % 24),
	}

	recent, err := h.history.RecentBroadcasts(r.Context(), 20)
	if err != nil {
		slog.Warn("API: history read failed", "error", err)
	} else {
		resp.Recent = recent
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("API: response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
