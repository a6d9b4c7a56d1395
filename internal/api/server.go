package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"flapboard/pkg/version"
)

// NewServer creates and configures the operator HTTP server. It accepts
// handlers for all API endpoints and a shutdownFunc for graceful
// shutdown.
func NewServer(addr string, events *EventHandler, history *HistoryHandler, circuits *CircuitHandler, stats *StatsHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Event Injection Endpoint
	mux.HandleFunc("POST /api/events", events.HandleInject)

	// 4. Content History Endpoint
	mux.HandleFunc("GET /api/history", history.HandleRecent)

	// 5. Circuit Endpoints
	mux.HandleFunc("GET /api/circuits", circuits.HandleStatus)
	mux.HandleFunc("POST /api/circuits", circuits.HandleSet)

	// 6. Stats Endpoint
	mux.Handle("GET /api/stats", stats)

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
	writeJSON(w, map[string]string{"version": version.Version})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
