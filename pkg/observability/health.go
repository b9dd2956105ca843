package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/nuanced-dev/lsproxy/pkg/container"
	"github.com/nuanced-dev/lsproxy/pkg/workspace"
)

// WorkerHealthSource is the narrow view of the Orchestrator's
// WorkerRegistry the health checker needs: which languages currently have
// a Healthy worker (spec.md §6 "/system/health").
type WorkerHealthSource interface {
	HealthyLanguages() map[workspace.Language]bool
}

// HealthChecker provides health check functionality
type HealthChecker struct {
	runtime container.Runtime
	workers WorkerHealthSource
}

// NewHealthChecker creates a new health checker. Either dependency may be
// nil, in which case that dependency is skipped in Check.
func NewHealthChecker(runtime container.Runtime, workers WorkerHealthSource) *HealthChecker {
	return &HealthChecker{
		runtime: runtime,
		workers: workers,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ms,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Liveness returns a simple liveness probe (always returns 200 if server is running)
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
	})
}

// Readiness returns a readiness probe (checks all dependencies)
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")

	// Return 503 if unhealthy, 200 if healthy or degraded
	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(status)
}

// Check performs a comprehensive health check: container engine
// reachability, and whether any detected language currently lacks a
// Healthy worker.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      "1.0.0", // TODO: Get from build info
		Dependencies: make(map[string]DependencyStatus),
	}

	if h.runtime != nil {
		engineStatus := h.checkEngine(ctx)
		status.Dependencies["container_engine"] = engineStatus
		if engineStatus.Status == StatusUnhealthy {
			status.Status = StatusUnhealthy
		}
	}

	if h.workers != nil {
		workersStatus := h.checkWorkers()
		status.Dependencies["workers"] = workersStatus
		if workersStatus.Status == StatusUnhealthy && status.Status != StatusUnhealthy {
			status.Status = StatusDegraded
		}
	}

	return status
}

// checkEngine pings the container engine.
func (h *HealthChecker) checkEngine(ctx context.Context) DependencyStatus {
	start := time.Now()
	status := DependencyStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}

	if err := h.runtime.Ping(ctx); err != nil {
		status.Status = StatusUnhealthy
		status.Message = err.Error()
	}
	status.Latency = time.Since(start)

	return status
}

// checkWorkers reports unhealthy if any registered language's worker is
// not currently Healthy. An empty registry (no languages detected yet) is
// reported healthy; degraded-but-running is the base HTTP API's own
// concern (GET /system/health), not this probe's.
func (h *HealthChecker) checkWorkers() DependencyStatus {
	status := DependencyStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}

	healthy := h.workers.HealthyLanguages()
	var unhealthy []string
	for lang, ok := range healthy {
		if !ok {
			unhealthy = append(unhealthy, string(lang))
		}
	}

	if len(unhealthy) > 0 {
		status.Status = StatusUnhealthy
		status.Message = "unhealthy workers: " + strings.Join(unhealthy, ", ")
	}

	return status
}

// RegisterHealthRoutes registers health check endpoints
func RegisterHealthRoutes(mux *http.ServeMux, checker *HealthChecker) {
	mux.HandleFunc("/health", checker.Readiness)
	mux.HandleFunc("/health/live", checker.Liveness)
	mux.HandleFunc("/health/ready", checker.Readiness)
}
