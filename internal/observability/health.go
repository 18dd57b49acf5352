package observability

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus is the body returned by the health endpoint.
type HealthStatus struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Running   bool   `json:"is_running"`
}

// RunningFunc reports whether capture/analysis is currently active.
type RunningFunc func() bool

// HealthCheckHandler handles health check requests, reporting service
// liveness and whether detection is currently running.
func HealthCheckHandler(version string, running RunningFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{
			Status:    "healthy",
			Service:   "bpmtrack",
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if running != nil {
			status.Running = running()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(status)
	}
}
