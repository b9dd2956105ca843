// Package workerclient is the base process's typed HTTP client for talking
// to a single worker (§4.G): "base URL is fixed at construction; every call
// has a configurable timeout (default 30s); network errors map to
// TransportError; non-2xx to WorkerError carrying status + body; 2xx
// responses are decoded into typed results."
package workerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nuanced-dev/lsproxy/pkg/worker"
)

// DefaultTimeout is the per-call deadline used when none is configured.
const DefaultTimeout = 30 * time.Second

// retryBackoff is the fixed backoff before the single retry on TransportError.
const retryBackoff = 200 * time.Millisecond

// Client talks to one worker's HTTP surface (§4.E).
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// New constructs a client for the worker at baseURL (e.g.
// "http://172.18.0.4:8080"). A zero timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*worker.HealthResponse, error) {
	var resp worker.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Definition calls POST /definition.
func (c *Client) Definition(ctx context.Context, req worker.DefinitionRequest) (*worker.DefinitionResponse, error) {
	var resp worker.DefinitionResponse
	if err := c.do(ctx, http.MethodPost, "/definition", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// References calls POST /references.
func (c *Client) References(ctx context.Context, req worker.ReferencesRequest) (*worker.ReferencesResponse, error) {
	var resp worker.ReferencesResponse
	if err := c.do(ctx, http.MethodPost, "/references", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Symbols calls POST /symbols.
func (c *Client) Symbols(ctx context.Context, req worker.SymbolsRequest) (*worker.SymbolsResponse, error) {
	var resp worker.SymbolsResponse
	if err := c.do(ctx, http.MethodPost, "/symbols", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FindIdentifier calls POST /find-identifier.
func (c *Client) FindIdentifier(ctx context.Context, req worker.FindIdentifierRequest) (*worker.FindIdentifierResponse, error) {
	var resp worker.FindIdentifierResponse
	if err := c.do(ctx, http.MethodPost, "/find-identifier", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FindReferencedSymbols calls POST /find-referenced-symbols.
func (c *Client) FindReferencedSymbols(ctx context.Context, req worker.FindReferencedSymbolsRequest) (*worker.FindReferencedSymbolsResponse, error) {
	var resp worker.FindReferencedSymbolsResponse
	if err := c.do(ctx, http.MethodPost, "/find-referenced-symbols", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do issues one HTTP call, retrying once on transport failure after
// retryBackoff, and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	resp, err := c.doOnce(ctx, method, path, payload)
	if err != nil {
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return &TransportError{Err: ctx.Err()}
		}
		resp, err = c.doOnce(ctx, method, path, payload)
		if err != nil {
			return &TransportError{Err: err}
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &WorkerError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrTransport, err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}
