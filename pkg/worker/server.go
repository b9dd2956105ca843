// Package worker implements the per-language worker's HTTP surface (§4.E):
// a stateless router holding a shared handle to the LSP Process Multiplexer.
package worker

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/nuanced-dev/lsproxy/pkg/lspmux"
)

// Server is the worker's HTTP router. It is stateless beyond the
// multiplexer handle and the diagnostics cache populated from the LSP
// server's publishDiagnostics notifications.
type Server struct {
	router        *mux.Router
	mux           *lspmux.Multiplexer
	workspacePath string
	log           *logrus.Logger

	diagMu      sync.RWMutex
	diagnostics map[string]interface{}

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	registry        *prometheus.Registry
}

// NewServer constructs a worker router bound to the given multiplexer. The
// multiplexer must already have had Start called (or be started concurrently
// by the caller) before /health will report ok.
func NewServer(m *lspmux.Multiplexer, workspacePath string, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		router:        mux.NewRouter(),
		mux:           m,
		workspacePath: workspacePath,
		log:           log,
		diagnostics:   make(map[string]interface{}),
		registry:      reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lsproxy_worker_requests_total",
			Help: "Total number of worker HTTP requests",
		}, []string{"path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lsproxy_worker_request_duration_seconds",
			Help:    "Worker HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}
	reg.MustRegister(s.requestsTotal, s.requestDuration)

	m.Subscribe(s.onServerNotification)

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/lsp", s.handleLSPPassthrough).Methods(http.MethodPost)
	s.router.HandleFunc("/definition", s.handleDefinition).Methods(http.MethodPost)
	s.router.HandleFunc("/references", s.handleReferences).Methods(http.MethodPost)
	s.router.HandleFunc("/symbols", s.handleSymbols).Methods(http.MethodPost)
	s.router.HandleFunc("/find-identifier", s.handleFindIdentifier).Methods(http.MethodPost)
	s.router.HandleFunc("/find-referenced-symbols", s.handleFindReferencedSymbols).Methods(http.MethodPost)
	s.router.HandleFunc("/diagnostics", s.handleDiagnostics).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router.Use(s.metricsMiddleware)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.requestsTotal.WithLabelValues(r.URL.Path, http.StatusText(rw.status)).Inc()
		s.requestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// onServerNotification records textDocument/publishDiagnostics for later
// retrieval via GET /diagnostics; every other notification is logged only.
func (s *Server) onServerNotification(method string, params interface{}) {
	if method != "textDocument/publishDiagnostics" {
		s.log.WithField("method", method).Debug("worker: server notification")
		return
	}

	m, ok := params.(map[string]interface{})
	if !ok {
		return
	}
	uri, _ := m["uri"].(string)
	if uri == "" {
		return
	}

	s.diagMu.Lock()
	s.diagnostics[uri] = m["diagnostics"]
	s.diagMu.Unlock()
}
