package capabilities

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"stratum/pkg/logging"
)

// Provider contributes capability defaults during setup.
type Provider func() Capabilities

// Switcher adjusts capabilities for one originating request. It returns the
// (possibly modified) set; entries it adds beyond the provided baseline are
// discarded.
type Switcher func(ctx context.Context, req *http.Request, caps Capabilities) (Capabilities, error)

// Service is the capabilities core service.
type Service struct {
	mu        sync.Mutex
	providers []Provider
	switchers []Switcher
	frozen    bool
}

// SetupDeps is empty; capabilities depend on nothing at setup.
type SetupDeps struct{}

// SetupContract collects providers and switchers during setup.
type SetupContract struct {
	service *Service
}

// StartDeps is empty.
type StartDeps struct{}

// StartContract resolves capability sets per request.
type StartContract struct {
	service *Service
}

// NewService creates the capabilities service.
func NewService() *Service {
	return &Service{}
}

// Setup opens provider and switcher registration.
func (s *Service) Setup(deps SetupDeps) (*SetupContract, error) {
	return &SetupContract{service: s}, nil
}

// Start freezes registration.
func (s *Service) Start(ctx context.Context, deps StartDeps) (*StartContract, error) {
	s.mu.Lock()
	s.frozen = true
	providers, switchers := len(s.providers), len(s.switchers)
	s.mu.Unlock()

	logging.Debug("CapabilitiesService", "Started with %d providers and %d switchers", providers, switchers)
	return &StartContract{service: s}, nil
}

// Stop releases nothing.
func (s *Service) Stop(ctx context.Context) error {
	return nil
}

// RegisterProvider contributes capability defaults. Registration closes once
// the service starts.
func (c *SetupContract) RegisterProvider(p Provider) error {
	if p == nil {
		return fmt.Errorf("register capabilities provider: provider must not be nil")
	}
	s := c.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return fmt.Errorf("register capabilities provider: registry is closed after start")
	}
	s.providers = append(s.providers, p)
	return nil
}

// RegisterSwitcher contributes a per-request switcher. Switchers run in
// registration order.
func (c *SetupContract) RegisterSwitcher(sw Switcher) error {
	if sw == nil {
		return fmt.Errorf("register capabilities switcher: switcher must not be nil")
	}
	s := c.service
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return fmt.Errorf("register capabilities switcher: registry is closed after start")
	}
	s.switchers = append(s.switchers, sw)
	return nil
}

// ResolveCapabilities merges all provider defaults and applies every switcher
// in order for the given request. The returned set is owned by the caller.
func (c *StartContract) ResolveCapabilities(ctx context.Context, req *http.Request) (Capabilities, error) {
	s := c.service
	s.mu.Lock()
	providers := s.providers
	switchers := s.switchers
	s.mu.Unlock()

	merged := make(Capabilities)
	for _, provide := range providers {
		merged.merge(provide())
	}

	current := merged.Clone()
	for i, switcher := range switchers {
		switched, err := switcher(ctx, req, current.Clone())
		if err != nil {
			return nil, fmt.Errorf("capabilities switcher %d: %w", i, err)
		}
		// A switcher may return only the entries it changed.
		switched.restrict(merged)
		current.merge(switched)
	}
	return current, nil
}
