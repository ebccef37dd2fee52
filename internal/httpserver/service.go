package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"stratum/internal/config"
	"stratum/internal/contexts"
	"stratum/internal/dependency"
	"stratum/pkg/logging"
)

// Handler is a route handler with access to the per-request handler context.
type Handler func(hctx *contexts.HandlerContext, w http.ResponseWriter, r *http.Request)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
	http.MethodHead:   true,
}

// Service is the HTTP core service.
type Service struct {
	cfg      config.HTTPConfig
	contexts *contexts.Registry
	metrics  *metrics

	router chi.Router
	routes chi.Router

	mu       sync.Mutex
	frozen   bool
	listener net.Listener
	server   *http.Server
}

// SetupDeps carries what the HTTP service needs from the orchestrator.
type SetupDeps struct {
	Config config.HTTPConfig
	// Contexts resolves handler contexts per request.
	Contexts *contexts.Registry
}

// SetupContract exposes route registration to core and plugins.
type SetupContract struct {
	service *Service
}

// StartDeps is empty; starting only opens the listener.
type StartDeps struct{}

// StartContract describes the running listener.
type StartContract struct {
	service *Service
}

// NewService creates the HTTP service.
func NewService() *Service {
	return &Service{}
}

// Setup builds the router and middleware chain. No listener is opened yet;
// routes registered now become reachable only after Start.
func (s *Service) Setup(deps SetupDeps) (*SetupContract, error) {
	if deps.Contexts == nil {
		return nil, fmt.Errorf("http setup: context registry is required")
	}

	s.cfg = deps.Config
	s.contexts = deps.Contexts
	s.metrics = newMetrics()

	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(requestLogger)
	router.Use(s.metrics.instrument)
	router.Use(chimiddleware.Recoverer)

	s.router = router
	s.routes = router
	if s.cfg.BasePath != "" {
		sub := chi.NewRouter()
		router.Mount(s.cfg.BasePath, sub)
		s.routes = sub
	}

	return &SetupContract{service: s}, nil
}

// Start opens the listener and begins serving registered routes.
func (s *Service) Start(ctx context.Context, deps StartDeps) (*StartContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.router == nil {
		return nil, fmt.Errorf("http start: service was not set up")
	}
	if s.listener != nil {
		return nil, fmt.Errorf("http start: already started")
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("http start: listen on %s: %w", addr, err)
	}

	s.frozen = true
	s.listener = listener
	s.server = &http.Server{Handler: s.router}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Error("HttpService", err, "Server terminated unexpectedly")
		}
	}()

	logging.Info("HttpService", "Listening on http://%s%s", listener.Addr(), s.cfg.BasePath)
	return &StartContract{service: s}, nil
}

// Stop drains in-flight requests within the configured timeout. Calling Stop
// on a never-started or already-stopped service is a no-op.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	timeout := time.Duration(s.cfg.ShutdownTimeoutMillis) * time.Millisecond
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http stop: %w", err)
	}
	logging.Info("HttpService", "Listener closed")
	return nil
}

// RegisterRoute attaches a handler under the base path. owner scopes the
// handler context; core routes pass an empty owner. Registration closes once
// the listener opens.
func (c *SetupContract) RegisterRoute(owner dependency.PluginID, method, pattern string, handler Handler) error {
	s := c.service

	if !allowedMethods[method] {
		return fmt.Errorf("register route: unsupported method '%s'", method)
	}
	if pattern == "" || pattern[0] != '/' {
		return fmt.Errorf("register route: pattern '%s' must start with '/'", pattern)
	}
	if handler == nil {
		return fmt.Errorf("register route %s %s: handler must not be nil", method, pattern)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return fmt.Errorf("register route %s %s: routes are closed after start", method, pattern)
	}

	s.routes.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hctx := s.contexts.NewHandlerContext(r.Context(), r, owner)
		handler(hctx, w, r)
	}))
	logging.Debug("HttpService", "Registered route %s %s (owner: '%s')", method, pattern, owner)
	return nil
}

// MetricsHandler exposes this server's Prometheus registry.
func (c *SetupContract) MetricsHandler() http.Handler {
	return c.service.metrics.handler()
}

// BasePath returns the configured route prefix.
func (c *SetupContract) BasePath() string {
	return c.service.cfg.BasePath
}

// Router returns the full handler chain, usable with httptest before the
// listener opens.
func (c *SetupContract) Router() http.Handler {
	return c.service.router
}

// Addr returns the bound listen address.
func (c *StartContract) Addr() string {
	s := c.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
