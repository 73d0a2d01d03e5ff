// Package healthprobe provides liveness and readiness HTTP handlers.
package healthprobe

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthChecker provides health and readiness checks.
type HealthChecker struct {
	startTime time.Time
	ready     atomic.Bool
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Response is the body served by both probes. The dashboard polls it and
// reads uptime as seconds rather than a formatted duration.
type Response struct {
	Status        string  `json:"status"`
	Ready         bool    `json:"ready"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	StartedAt     string  `json:"startedAt"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK while the process is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, "healthy")
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK if ready, 503 Service Unavailable if not.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			h.write(w, http.StatusServiceUnavailable, "not_ready")
			return
		}
		h.write(w, http.StatusOK, "ready")
	}
}

func (h *HealthChecker) write(w http.ResponseWriter, statusCode int, status string) {
	resp := Response{
		Status:        status,
		Ready:         h.ready.Load(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		StartedAt:     h.startTime.UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
