package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readinessPingTimeout bounds the database ping in /ready.
const readinessPingTimeout = 2 * time.Second

// Pinger reports whether the document index database is reachable.
// Implemented by *index.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServiceStatus describes the configured evidence sources for /ready.
type ServiceStatus struct {
	// Model is the generative model status ("configured").
	Model string
	// GoogleDrive is "configured" or "mock".
	GoogleDrive string
	// WebSearch is the primary search engine name.
	WebSearch string
}

// health is a simple liveness endpoint for Docker/Kubernetes probes.
// Returns 200 OK with {"status":"ok"}.
func health(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

// readiness reports per-service status. The database is probed on each
// call; the remaining services report their startup configuration.
// Returns 503 when the document index is unreachable.
func readiness(index Pinger, services ServiceStatus, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		httpStatus := http.StatusOK

		indexStatus := "connected"
		if index != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessPingTimeout)
			defer cancel()
			if err := index.Ping(ctx); err != nil {
				logger.Warn("readiness probe: document index unreachable", "error", err)
				indexStatus = "unreachable"
				status = "degraded"
				httpStatus = http.StatusServiceUnavailable
			}
		} else {
			indexStatus = "not configured"
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		writeJSON(w, httpStatus, map[string]any{
			"status": status,
			"services": map[string]string{
				"model":          services.Model,
				"document_index": indexStatus,
				"google_drive":   services.GoogleDrive,
				"web_search":     services.WebSearch,
			},
		}, logger)
	}
}
