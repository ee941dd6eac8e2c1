package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/statictls/internal/infra/buildinfo"
	"github.com/yndnr/statictls/internal/telemetry/metric"
)

// AdminConfig configures the admin endpoints.
type AdminConfig struct {
	// Ready reports whether the main listener is serving.
	Ready func() bool

	// Metrics is exposed at /metrics. Nil answers 404.
	Metrics *metric.Registry

	Logger *slog.Logger
}

// NewAdminHandler returns the admin mux: /health, /ready, /metrics and
// /version.
func NewAdminHandler(cfg AdminConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, cfg.Logger, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready == nil || !cfg.Ready() {
			writeJSON(w, cfg.Logger, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"time":   time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		writeJSON(w, cfg.Logger, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, cfg.Logger, http.StatusOK, buildinfo.Get())
	})

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	return Chain(mux, Recover(cfg.Logger), RequestID())
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
