// Package server is the editor-side half of Hermes: it owns the URI scheme, keeps the
// OS registration and discovery record pointing at itself, and dispatches relayed paths
// to registered endpoints.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/core/threading"
	"github.com/world-in-progress/hermes/scheme"
	"github.com/world-in-progress/hermes/uri"
)

// Version is stamped into discovery records.
var Version = "dev"

var ErrNoEndpoint = errors.New("no handler registered for endpoint")

type (
	// Endpoint receives every path below its name, e.g. "/Game/Map" for content/Game/Map.
	// Query keys are lower-cased. Endpoints are called from worker goroutines.
	Endpoint interface {
		HandleRequest(path string, query map[string]string) error
	}

	EndpointFunc func(path string, query map[string]string) error

	Options struct {
		Config    config.ServerConfig
		Settings  *config.Settings
		Providers *scheme.Providers
		Registrar Registrar
	}

	Server struct {
		settings  *config.Settings
		providers *scheme.Providers
		registrar Registrar
		pool      *threading.WorkerPool

		mu         sync.RWMutex
		cfg        config.ServerConfig
		endpoints  map[string]Endpoint
		registered string
		port       int

		// refreshMu serializes scheme changes, which call out to the registrar.
		refreshMu   sync.Mutex
		initialized atomic.Bool

		httpServer    *http.Server
		submitTimeout time.Duration
		shutdownOnce  sync.Once
		shutdownErr   error
	}
)

func (f EndpointFunc) HandleRequest(path string, query map[string]string) error {
	return f(path, query)
}

func New(opts Options) *Server {
	providers := opts.Providers
	if providers == nil {
		providers = scheme.NewProviders()
	}
	workers := opts.Config.Workers
	if workers.Max <= 0 {
		workers.Max = 1
	}
	if workers.Spawn <= 0 || workers.Spawn > workers.Max {
		workers.Spawn = 1
	}
	if workers.Buffer < 0 {
		workers.Buffer = 0
	}

	s := &Server{
		settings:      opts.Settings,
		providers:     providers,
		registrar:     opts.Registrar,
		pool:          threading.NewWorkerPool(workers.Max, workers.Buffer, workers.Spawn),
		cfg:           opts.Config,
		endpoints:     make(map[string]Endpoint),
		submitTimeout: time.Second,
	}
	providers.Subscribe(s.onProvidersChanged)
	return s
}

// Register routes paths below endpoint to h. Registering a name twice replaces the first handler.
func (s *Server) Register(endpoint string, h Endpoint) {
	logger.Debug("registering handler for endpoint %s", endpoint)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.endpoints[endpoint]; ok {
		logger.Warn("registering duplicate handler for endpoint %s, is it registered twice or never unregistered?", endpoint)
	}
	s.endpoints[endpoint] = h
}

func (s *Server) Unregister(endpoint string) {
	logger.Debug("unregistering handler for endpoint %s", endpoint)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.endpoints[endpoint]; !ok {
		logger.Warn("unregistering endpoint %s which has not been registered, is it unregistered twice?", endpoint)
		return
	}
	delete(s.endpoints, endpoint)
}

// Endpoints lists the registered endpoint names in order.
func (s *Server) Endpoints() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.endpoints))
	for name := range s.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// URI builds a link that reaches endpoint with path, or "" while no scheme is registered.
func (s *Server) URI(endpoint, path string) string {
	return uri.Build(s.Scheme(), endpoint, path)
}

// Scheme is the currently registered scheme.
func (s *Server) Scheme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registered
}

// Port is the loopback port the server listens on, zero before Run.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// HandlePath dispatches a relayed message such as "content/Game/Map?edit".
func (s *Server) HandlePath(full string) error {
	logger.Info("dispatching path '%s'", full)

	req := uri.ParsePath(full)
	logger.WithFields(map[string]any{
		"endpoint": req.Endpoint,
		"subpath":  req.Path,
		"query":    req.Query,
	}).Debug("parsed path")

	s.mu.RLock()
	h, ok := s.endpoints[req.Endpoint]
	s.mu.RUnlock()
	if !ok {
		logger.Error("there is no handler registered for the endpoint '%s' in path '%s', registered endpoints: %v", req.Endpoint, full, s.Endpoints())
		return fmt.Errorf("%s: %w", req.Endpoint, ErrNoEndpoint)
	}
	return h.HandleRequest(req.Path, req.Query)
}

func (s *Server) config() config.ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}
