package uisettings

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"stratum/pkg/logging"
)

// Service is the runtime-settings core service.
type Service struct {
	mu        sync.Mutex
	defaults  map[string]Definition
	overrides map[string]interface{}
	frozen    bool

	storeFor func(req *http.Request) ObjectStore
}

// SetupDeps carries the operator overrides from configuration.
type SetupDeps struct {
	Overrides map[string]interface{}
}

// SetupContract lets core and plugins contribute setting defaults during the
// setup phase.
type SetupContract struct {
	service *Service
}

// StartDeps binds the service to the saved-objects store.
type StartDeps struct {
	// StoreFor yields the store scoped to one originating request. req may
	// be nil for internal callers.
	StoreFor func(req *http.Request) ObjectStore
}

// StartContract hands out request-scoped settings clients.
type StartContract struct {
	service *Service
}

// NewService creates the settings service.
func NewService() *Service {
	return &Service{
		defaults:  make(map[string]Definition),
		overrides: make(map[string]interface{}),
	}
}

// Setup records overrides and opens the default registry.
func (s *Service) Setup(deps SetupDeps) (*SetupContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range deps.Overrides {
		s.overrides[key] = value
	}
	return &SetupContract{service: s}, nil
}

// Start freezes the default registry and wires the store factory.
func (s *Service) Start(ctx context.Context, deps StartDeps) (*StartContract, error) {
	if deps.StoreFor == nil {
		return nil, fmt.Errorf("ui settings start: store factory is required")
	}

	s.mu.Lock()
	s.frozen = true
	s.storeFor = deps.StoreFor
	count := len(s.defaults)
	s.mu.Unlock()

	logging.Debug("UiSettingsService", "Started with %d registered defaults", count)
	return &StartContract{service: s}, nil
}

// Stop releases nothing; settings hold no resources of their own.
func (s *Service) Stop(ctx context.Context) error {
	return nil
}

// RegisterDefault contributes a setting default. Registration closes once the
// service starts; duplicate keys are rejected.
func (c *SetupContract) RegisterDefault(key string, def Definition) error {
	if key == "" {
		return fmt.Errorf("register setting: key must not be empty")
	}

	s := c.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return fmt.Errorf("register setting '%s': registry is closed after start", key)
	}
	if _, exists := s.defaults[key]; exists {
		return fmt.Errorf("register setting '%s': already registered", key)
	}
	s.defaults[key] = def
	return nil
}

// ClientFor builds a settings client bound to one originating request.
func (c *StartContract) ClientFor(req *http.Request) *Client {
	s := c.service
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Client{
		store:     s.storeFor(req),
		defaults:  s.defaults,
		overrides: s.overrides,
	}
}
