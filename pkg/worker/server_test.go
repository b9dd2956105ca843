package worker

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServer_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	// The counter has no series until a request has been recorded, and a
	// request is recorded only after its handler returns, so the first
	// scrape populates the series the second scrape reports.
	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lsproxy_worker_requests_total")
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RequestsRecordedInMetrics(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.ServeHTTP(httptest.NewRecorder(), req)

	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, metricsReq)

	assert.Contains(t, rec.Body.String(), `path="/health"`)
}
