// Package api implements the base process's HTTP API (§6): symbol
// navigation endpoints that dispatch to per-language worker containers, and
// a system health endpoint reflecting WorkerRegistry state.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/nuanced-dev/lsproxy/pkg/dispatcher"
	"github.com/nuanced-dev/lsproxy/pkg/httputil"
	"github.com/nuanced-dev/lsproxy/pkg/orchestrator"
	"github.com/nuanced-dev/lsproxy/pkg/workerclient"
)

// HealthSource is the subset of the Orchestrator the health handler needs.
type HealthSource interface {
	Registry() *orchestrator.WorkerRegistry
}

// Server is the base process's HTTP router (§6). It holds a Dispatcher to
// resolve files to workers and a small per-endpoint workerclient.Client
// cache, mirroring pkg/api/handlers.go's Server/setupRoutes/ServeHTTP shape
// from the teacher, generalized from module/version storage to symbol
// navigation.
type Server struct {
	router       *mux.Router
	handler      http.Handler
	dispatcher   *dispatcher.Dispatcher
	health       HealthSource
	log          *logrus.Logger
	version      string
	clientTimeout time.Duration

	clientsMu sync.Mutex
	clients   map[string]*workerclient.Client
}

// NewServer constructs the base API router.
func NewServer(disp *dispatcher.Dispatcher, health HealthSource, version string, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{
		router:        mux.NewRouter(),
		dispatcher:    disp,
		health:        health,
		log:           log,
		version:       version,
		clientTimeout: workerclient.DefaultTimeout,
		clients:       make(map[string]*workerclient.Client),
	}
	s.setupRoutes()
	s.handler = httputil.RequestIDMiddleware(s.router)
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/v1/symbol/find-definition", s.handleFindDefinition).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/symbol/find-references", s.handleFindReferences).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/symbol/find-referenced-symbols", s.handleFindReferencedSymbols).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/symbol/find-identifier", s.handleFindIdentifier).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/symbol/definitions-in-file", s.handleDefinitionsInFile).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/system/health", s.handleSystemHealth).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// clientFor returns a cached workerclient.Client for desc's endpoint,
// creating one on first use. Clients are cheap (a *http.Client wrapper) but
// caching avoids rebuilding one per request.
func (s *Server) clientFor(desc *orchestrator.WorkerDescriptor) *workerclient.Client {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if c, ok := s.clients[desc.EndpointURL]; ok {
		return c
	}
	c := workerclient.New(desc.EndpointURL, s.clientTimeout)
	s.clients[desc.EndpointURL] = c
	return c
}
