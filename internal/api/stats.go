package api

import (
	"net/http"

	"staticnews/pkg/content"
	"staticnews/pkg/pipeline"
	"staticnews/pkg/playout"
	"staticnews/pkg/tracker"
)

// StatsHandler surfaces provider counters and pipeline depths.
type StatsHandler struct {
	tracker     *tracker.Tracker
	items       *content.Store
	orch        *pipeline.Orchestrator
	hub         *playout.Hub
	scriptChain []string
}

// NewStatsHandler creates a StatsHandler. hub may be nil when running
// headless.
func NewStatsHandler(t *tracker.Tracker, items *content.Store, orch *pipeline.Orchestrator, hub *playout.Hub, scriptChain []string) *StatsHandler {
	return &StatsHandler{
		tracker:     t,
		items:       items,
		orch:        orch,
		hub:         hub,
		scriptChain: scriptChain,
	}
}

type providerStatsDTO struct {
	Successes    int64 `json:"successes"`
	Failures     int64 `json:"failures"`
	FallbackHits int64 `json:"fallback_hits"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	HitRate      int64 `json:"hit_rate"`
}

type pipelineStats struct {
	ContentItems int `json:"content_items"`
	ScriptQueue  int `json:"script_queue"`
	RenderQueue  int `json:"render_queue"`
	Viewers      int `json:"viewers"`
}

type statsResponse struct {
	Pipeline    pipelineStats               `json:"pipeline"`
	Providers   map[string]providerStatsDTO `json:"providers"`
	ScriptChain []string                    `json:"script_chain"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := statsResponse{
		Pipeline: pipelineStats{
			ContentItems: h.items.Len(),
			ScriptQueue:  h.orch.ScriptQueue().Len(),
			RenderQueue:  h.orch.RenderQueue().Len(),
		},
		Providers:   make(map[string]providerStatsDTO),
		ScriptChain: h.scriptChain,
	}
	if h.hub != nil {
		resp.Pipeline.Viewers = h.hub.Viewers()
	}

	for provider, stats := range snapshot {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Providers[provider] = providerStatsDTO{
			Successes:    stats.Successes,
			Failures:     stats.Failures,
			FallbackHits: stats.FallbackHits,
			CacheHits:    stats.CacheHits,
			CacheMisses:  stats.CacheMisses,
			HitRate:      hitRate,
		}
	}

	writeJSON(w, resp)
}
