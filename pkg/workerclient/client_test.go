package workerclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuanced-dev/lsproxy/pkg/worker"
)

func TestClient_Health_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(worker.HealthResponse{Status: "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	resp, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestClient_Definition_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/definition", r.URL.Path)
		var req worker.DefinitionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "main.go", req.Position.Path)

		json.NewEncoder(w).Encode(worker.DefinitionResponse{
			Definitions:        []worker.FilePosition{{Path: "util.go"}},
			SelectedIdentifier: "Foo",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	resp, err := c.Definition(context.Background(), worker.DefinitionRequest{
		Position: worker.FilePosition{Path: "main.go"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Foo", resp.SelectedIdentifier)
	require.Len(t, resp.Definitions, 1)
	assert.Equal(t, "util.go", resp.Definitions[0].Path)
}

func TestClient_WorkerError_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"kind":"ChildNotReady","message":"not ready"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Health(context.Background())
	require.Error(t, err)

	var workerErr *WorkerError
	require.ErrorAs(t, err, &workerErr)
	assert.Equal(t, http.StatusServiceUnavailable, workerErr.Status)
}

func TestClient_TransportError_ConnectionRefused(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)

	start := time.Now()
	_, err := c.Health(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.GreaterOrEqual(t, elapsed, retryBackoff)
}

func TestClient_DefaultTimeout(t *testing.T) {
	c := New("http://example.invalid", 0)
	assert.Equal(t, DefaultTimeout, c.timeout)
}
