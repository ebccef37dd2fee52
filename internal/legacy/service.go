// Package legacy bridges the deprecated plugin system into the modern
// lifecycle.
//
// Legacy initializers register by name and receive the same CoreSetup and
// CoreStart bundles as modern plugins. The bridge is one-directional: in the
// dependency graph it appears as a single synthetic node depending on every
// modern plugin, so it always runs last and nothing may depend on it.
package legacy

import (
	"context"
	"errors"
	"fmt"

	"stratum/internal/api"
	"stratum/internal/dependency"
	"stratum/pkg/logging"
)

// BridgeID is the graph node id of the synthetic legacy bridge.
const BridgeID dependency.PluginID = "legacy"

// Initializer is one legacy subsystem hooked into the lifecycle. Nil phase
// functions are skipped.
type Initializer struct {
	Name  string
	Setup func(core *api.CoreSetup) error
	Start func(ctx context.Context, core *api.CoreStart) error
	Stop  func(ctx context.Context) error
}

// Service is the legacy bridge core service.
type Service struct {
	initializers []Initializer
	active       []Initializer
	frozen       bool
}

// NewService creates the legacy service.
func NewService() *Service {
	return &Service{}
}

// RegisterInitializer hooks a legacy subsystem in. Registration closes when
// setup runs.
func (s *Service) RegisterInitializer(init Initializer) error {
	if init.Name == "" {
		return fmt.Errorf("register legacy initializer: name must not be empty")
	}
	if s.frozen {
		return fmt.Errorf("register legacy initializer '%s': registration is closed after setup", init.Name)
	}
	for _, existing := range s.initializers {
		if existing.Name == init.Name {
			return fmt.Errorf("register legacy initializer '%s': already registered", init.Name)
		}
	}
	s.initializers = append(s.initializers, init)
	return nil
}

// Setup runs every initializer's setup hook in registration order.
func (s *Service) Setup(core *api.CoreSetup) error {
	s.frozen = true
	for _, init := range s.initializers {
		if init.Setup != nil {
			if err := init.Setup(core); err != nil {
				return fmt.Errorf("legacy '%s' setup: %w", init.Name, err)
			}
		}
		s.active = append(s.active, init)
		logging.Debug("LegacyService", "Initializer '%s' set up", init.Name)
	}
	if len(s.initializers) > 0 {
		logging.Info("LegacyService", "Bridged %d legacy initializers", len(s.initializers))
	}
	return nil
}

// Start runs every set-up initializer's start hook in registration order.
func (s *Service) Start(ctx context.Context, core *api.CoreStart) error {
	for _, init := range s.active {
		if init.Start == nil {
			continue
		}
		if err := init.Start(ctx, core); err != nil {
			return fmt.Errorf("legacy '%s' start: %w", init.Name, err)
		}
	}
	return nil
}

// Stop tears initializers down in reverse order, best effort. A second Stop
// is a no-op.
func (s *Service) Stop(ctx context.Context) error {
	var errs []error
	for i := len(s.active) - 1; i >= 0; i-- {
		init := s.active[i]
		if init.Stop == nil {
			continue
		}
		if err := init.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("legacy '%s' stop: %w", init.Name, err))
		}
	}
	s.active = nil
	return errors.Join(errs...)
}
