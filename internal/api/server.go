// Package api exposes the station's HTTP surface: status, schedule,
// stats, the voting transport, and the playout websocket.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"staticnews/pkg/version"
)

// NewServer creates and configures the HTTP server.
func NewServer(addr string, status *StatusHandler, votingH *VotingHandler, stats *StatsHandler, hub http.Handler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Broadcast Status
	mux.HandleFunc("GET /api/onair", status.HandleOnAir)
	mux.HandleFunc("GET /api/schedule", status.HandleSchedule)

	// 4. Stats Endpoint
	mux.Handle("GET /api/stats", stats)

	// 5. Voting Endpoints
	mux.HandleFunc("POST /api/voting/open", votingH.HandleOpen)
	mux.HandleFunc("POST /api/voting/vote", votingH.HandleVote)
	mux.HandleFunc("GET /api/voting/results", votingH.HandleResults)

	// 6. Playout WebSocket
	if hub != nil {
		mux.Handle("GET /ws/playout", hub)
	}

	// 7. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
