package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nuanced-dev/lsproxy/pkg/container"
	"github.com/nuanced-dev/lsproxy/pkg/workspace"
)

// fakeRuntime is a minimal container.Runtime double exercising only Ping;
// the other methods are never called by the health checker.
type fakeRuntime struct {
	pingErr error
}

func (f *fakeRuntime) CreateNetwork(ctx context.Context, name string) (string, error) {
	return "", nil
}
func (f *fakeRuntime) RemoveNetwork(ctx context.Context, name string) error { return nil }
func (f *fakeRuntime) PullIfMissing(ctx context.Context, imageRef string) error {
	return nil
}
func (f *fakeRuntime) CreateContainer(ctx context.Context, spec container.ContainerSpec) (string, error) {
	return "", nil
}
func (f *fakeRuntime) StartContainer(ctx context.Context, id string) error { return nil }
func (f *fakeRuntime) StopContainer(ctx context.Context, id string, timeout int) error {
	return nil
}
func (f *fakeRuntime) RemoveContainer(ctx context.Context, id string, force bool) error {
	return nil
}
func (f *fakeRuntime) InspectContainer(ctx context.Context, id string) (*container.InspectResult, error) {
	return nil, nil
}
func (f *fakeRuntime) ContainerLogs(ctx context.Context, id string, tailBytes int) (string, error) {
	return "", nil
}
func (f *fakeRuntime) Close() error { return nil }
func (f *fakeRuntime) Ping(ctx context.Context) error {
	return f.pingErr
}

type fakeWorkerSource struct {
	healthy map[workspace.Language]bool
}

func (f *fakeWorkerSource) HealthyLanguages() map[workspace.Language]bool {
	return f.healthy
}

func TestNewHealthChecker(t *testing.T) {
	t.Run("with nil dependencies", func(t *testing.T) {
		checker := NewHealthChecker(nil, nil)
		if checker == nil {
			t.Fatal("Expected non-nil checker")
		}
		if checker.runtime != nil {
			t.Error("Expected nil runtime")
		}
		if checker.workers != nil {
			t.Error("Expected nil workers")
		}
	})

	t.Run("with runtime and workers", func(t *testing.T) {
		checker := NewHealthChecker(&fakeRuntime{}, &fakeWorkerSource{})
		if checker.runtime == nil {
			t.Error("Expected non-nil runtime")
		}
		if checker.workers == nil {
			t.Error("Expected non-nil workers")
		}
	})
}

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker(nil, nil)

	req := httptest.NewRequest("GET", "/health/live", nil)
	rr := httptest.NewRecorder()

	checker.Liveness(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("Liveness check returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	contentType := rr.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", contentType)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != StatusHealthy {
		t.Errorf("Expected status %s, got %v", StatusHealthy, response["status"])
	}

	if _, ok := response["timestamp"]; !ok {
		t.Error("Expected timestamp in response")
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	t.Run("healthy readiness", func(t *testing.T) {
		checker := NewHealthChecker(nil, nil)

		req := httptest.NewRequest("GET", "/health/ready", nil)
		rr := httptest.NewRecorder()

		checker.Readiness(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("Readiness check returned wrong status code: got %v want %v", status, http.StatusOK)
		}

		contentType := rr.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", contentType)
		}
	})

	t.Run("unhealthy readiness with unreachable engine", func(t *testing.T) {
		checker := NewHealthChecker(&fakeRuntime{pingErr: errors.New("connection refused")}, nil)

		req := httptest.NewRequest("GET", "/health/ready", nil)
		rr := httptest.NewRecorder()

		checker.Readiness(rr, req)

		if status := rr.Code; status != http.StatusServiceUnavailable {
			t.Errorf("Expected status %v for unhealthy, got %v", http.StatusServiceUnavailable, status)
		}

		var response HealthStatus
		if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if response.Status != StatusUnhealthy {
			t.Errorf("Expected status %s, got %s", StatusUnhealthy, response.Status)
		}
	})

	t.Run("degraded readiness with healthy engine and an unhealthy worker", func(t *testing.T) {
		checker := NewHealthChecker(&fakeRuntime{}, &fakeWorkerSource{
			healthy: map[workspace.Language]bool{workspace.LanguageGo: false},
		})

		req := httptest.NewRequest("GET", "/health/ready", nil)
		rr := httptest.NewRecorder()

		checker.Readiness(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("Expected status %v for degraded, got %v", http.StatusOK, status)
		}

		var response HealthStatus
		if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if response.Status != StatusDegraded {
			t.Errorf("Expected status %s, got %s", StatusDegraded, response.Status)
		}
	})
}

func TestHealthChecker_Check(t *testing.T) {
	t.Run("no dependencies", func(t *testing.T) {
		checker := NewHealthChecker(nil, nil)
		ctx := context.Background()

		status := checker.Check(ctx)

		if status.Status != StatusHealthy {
			t.Errorf("Expected status %s, got %s", StatusHealthy, status.Status)
		}

		if len(status.Dependencies) != 0 {
			t.Errorf("Expected 0 dependencies, got %d", len(status.Dependencies))
		}

		if status.Version != "1.0.0" {
			t.Errorf("Expected version 1.0.0, got %s", status.Version)
		}

		if status.Timestamp.IsZero() {
			t.Error("Expected non-zero timestamp")
		}
	})

	t.Run("with healthy engine", func(t *testing.T) {
		checker := NewHealthChecker(&fakeRuntime{}, nil)
		ctx := context.Background()

		status := checker.Check(ctx)

		if len(status.Dependencies) != 1 {
			t.Errorf("Expected 1 dependency, got %d", len(status.Dependencies))
		}

		engineStatus, ok := status.Dependencies["container_engine"]
		if !ok {
			t.Fatal("Expected container_engine dependency")
		}

		if engineStatus.Status != StatusHealthy {
			t.Errorf("Expected status %s, got %s with message: %s", StatusHealthy, engineStatus.Status, engineStatus.Message)
		}
	})

	t.Run("with unreachable engine", func(t *testing.T) {
		checker := NewHealthChecker(&fakeRuntime{pingErr: errors.New("connection refused")}, nil)
		ctx := context.Background()

		status := checker.Check(ctx)

		if status.Status != StatusUnhealthy {
			t.Errorf("Expected status %s, got %s", StatusUnhealthy, status.Status)
		}

		engineStatus := status.Dependencies["container_engine"]
		if engineStatus.Status != StatusUnhealthy {
			t.Errorf("Expected engine status %s, got %s", StatusUnhealthy, engineStatus.Status)
		}

		if engineStatus.Message == "" {
			t.Error("Expected error message for unreachable engine")
		}
	})

	t.Run("with all workers healthy", func(t *testing.T) {
		checker := NewHealthChecker(nil, &fakeWorkerSource{
			healthy: map[workspace.Language]bool{workspace.LanguageGo: true, workspace.LanguagePython: true},
		})
		ctx := context.Background()

		status := checker.Check(ctx)

		if status.Status != StatusHealthy {
			t.Errorf("Expected status %s, got %s", StatusHealthy, status.Status)
		}

		workersStatus, ok := status.Dependencies["workers"]
		if !ok {
			t.Fatal("Expected workers dependency")
		}

		if workersStatus.Status != StatusHealthy {
			t.Errorf("Expected workers status %s, got %s", StatusHealthy, workersStatus.Status)
		}
	})

	t.Run("with an unhealthy worker causes degraded", func(t *testing.T) {
		checker := NewHealthChecker(nil, &fakeWorkerSource{
			healthy: map[workspace.Language]bool{workspace.LanguageGo: false},
		})
		ctx := context.Background()

		status := checker.Check(ctx)

		if status.Status != StatusDegraded {
			t.Errorf("Expected status %s, got %s", StatusDegraded, status.Status)
		}

		workersStatus := status.Dependencies["workers"]
		if workersStatus.Status != StatusUnhealthy {
			t.Errorf("Expected workers status %s, got %s", StatusUnhealthy, workersStatus.Status)
		}
	})

	t.Run("with engine and workers both healthy", func(t *testing.T) {
		checker := NewHealthChecker(&fakeRuntime{}, &fakeWorkerSource{
			healthy: map[workspace.Language]bool{workspace.LanguageGo: true},
		})
		ctx := context.Background()

		status := checker.Check(ctx)

		if len(status.Dependencies) != 2 {
			t.Errorf("Expected 2 dependencies, got %d", len(status.Dependencies))
		}

		if engineStatus, ok := status.Dependencies["container_engine"]; ok && engineStatus.Status == StatusUnhealthy {
			t.Errorf("Engine should not be unhealthy, got: %s", engineStatus.Message)
		}
		if workersStatus, ok := status.Dependencies["workers"]; ok && workersStatus.Status == StatusUnhealthy {
			t.Errorf("Workers should not be unhealthy, got: %s", workersStatus.Message)
		}
	})
}

func TestHealthChecker_checkEngine(t *testing.T) {
	t.Run("successful ping", func(t *testing.T) {
		checker := NewHealthChecker(&fakeRuntime{}, nil)
		ctx := context.Background()

		status := checker.checkEngine(ctx)

		if status.Status != StatusHealthy {
			t.Errorf("Expected status %s, got %s", StatusHealthy, status.Status)
		}

		if status.Latency < 0 {
			t.Error("Expected non-negative latency")
		}
	})

	t.Run("ping fails", func(t *testing.T) {
		checker := NewHealthChecker(&fakeRuntime{pingErr: errors.New("connection refused")}, nil)
		ctx := context.Background()

		status := checker.checkEngine(ctx)

		if status.Status != StatusUnhealthy {
			t.Errorf("Expected status %s, got %s", StatusUnhealthy, status.Status)
		}

		if status.Message != "connection refused" {
			t.Errorf("Expected 'connection refused', got %s", status.Message)
		}
	})
}

func TestHealthChecker_checkWorkers(t *testing.T) {
	t.Run("empty registry is healthy", func(t *testing.T) {
		checker := NewHealthChecker(nil, &fakeWorkerSource{healthy: map[workspace.Language]bool{}})

		status := checker.checkWorkers()

		if status.Status != StatusHealthy {
			t.Errorf("Expected status %s, got %s", StatusHealthy, status.Status)
		}
	})

	t.Run("reports unhealthy languages by name", func(t *testing.T) {
		checker := NewHealthChecker(nil, &fakeWorkerSource{
			healthy: map[workspace.Language]bool{workspace.LanguagePython: false},
		})

		status := checker.checkWorkers()

		if status.Status != StatusUnhealthy {
			t.Errorf("Expected status %s, got %s", StatusUnhealthy, status.Status)
		}

		if !contains(status.Message, "python") {
			t.Errorf("Expected message to mention python, got %s", status.Message)
		}
	})
}

func TestRegisterHealthRoutes(t *testing.T) {
	t.Run("registers all routes", func(t *testing.T) {
		mux := http.NewServeMux()
		checker := NewHealthChecker(nil, nil)

		RegisterHealthRoutes(mux, checker)

		req := httptest.NewRequest("GET", "/health", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("/health returned wrong status code: got %v want %v", status, http.StatusOK)
		}

		req = httptest.NewRequest("GET", "/health/live", nil)
		rr = httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("/health/live returned wrong status code: got %v want %v", status, http.StatusOK)
		}

		req = httptest.NewRequest("GET", "/health/ready", nil)
		rr = httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("/health/ready returned wrong status code: got %v want %v", status, http.StatusOK)
		}
	})

	t.Run("routes work with dependencies", func(t *testing.T) {
		mux := http.NewServeMux()

		checker := NewHealthChecker(&fakeRuntime{}, nil)
		RegisterHealthRoutes(mux, checker)

		req := httptest.NewRequest("GET", "/health", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("/health with runtime returned wrong status code: got %v want %v", status, http.StatusOK)
		}

		var response HealthStatus
		if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if _, ok := response.Dependencies["container_engine"]; !ok {
			t.Error("Expected container_engine dependency in response")
		}
	})
}

func TestHealthStatus_Values(t *testing.T) {
	t.Run("status constants", func(t *testing.T) {
		if StatusHealthy != "healthy" {
			t.Errorf("Expected StatusHealthy to be 'healthy', got %s", StatusHealthy)
		}
		if StatusDegraded != "degraded" {
			t.Errorf("Expected StatusDegraded to be 'degraded', got %s", StatusDegraded)
		}
		if StatusUnhealthy != "unhealthy" {
			t.Errorf("Expected StatusUnhealthy to be 'unhealthy', got %s", StatusUnhealthy)
		}
	})
}

func TestDependencyStatus_Latency(t *testing.T) {
	status := DependencyStatus{
		Status:    StatusHealthy,
		Latency:   50 * time.Millisecond,
		Timestamp: time.Now(),
	}

	if status.Latency != 50*time.Millisecond {
		t.Errorf("Expected latency 50ms, got %v", status.Latency)
	}
}

func TestHealthStatus_JSON(t *testing.T) {
	t.Run("marshal and unmarshal", func(t *testing.T) {
		original := HealthStatus{
			Status:    StatusHealthy,
			Timestamp: time.Now().Round(time.Second),
			Version:   "1.0.0",
			Dependencies: map[string]DependencyStatus{
				"container_engine": {
					Status:    StatusHealthy,
					Message:   "OK",
					Latency:   10 * time.Millisecond,
					Timestamp: time.Now().Round(time.Second),
				},
			},
		}

		data, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}

		var decoded HealthStatus
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}

		if decoded.Status != original.Status {
			t.Errorf("Status mismatch: got %s, want %s", decoded.Status, original.Status)
		}

		if decoded.Version != original.Version {
			t.Errorf("Version mismatch: got %s, want %s", decoded.Version, original.Version)
		}
	})
}

func TestDependencyStatus_JSON(t *testing.T) {
	t.Run("marshal and unmarshal", func(t *testing.T) {
		original := DependencyStatus{
			Status:    StatusDegraded,
			Message:   "High latency",
			Latency:   500 * time.Millisecond,
			Timestamp: time.Now().Round(time.Second),
		}

		data, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}

		var decoded DependencyStatus
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}

		if decoded.Status != original.Status {
			t.Errorf("Status mismatch: got %s, want %s", decoded.Status, original.Status)
		}

		if decoded.Message != original.Message {
			t.Errorf("Message mismatch: got %s, want %s", decoded.Message, original.Message)
		}
	})
}

// Helper function
func contains(s, substr string) bool {
	return findInString(s, substr)
}

func findInString(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
