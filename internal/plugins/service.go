package plugins

import (
	"context"
	"errors"
	"fmt"

	"stratum/internal/api"
	"stratum/internal/dependency"
	"stratum/pkg/logging"
)

// Service is the plugins core service.
type Service struct {
	factories map[dependency.PluginID]Factory

	manifests  []Manifest
	graph      *dependency.Graph
	enabled    map[dependency.PluginID]bool
	order      []dependency.PluginID
	initialize bool

	instances      map[dependency.PluginID]Plugin
	setupContracts DepContracts
	startContracts DepContracts
	setupOrder     []dependency.PluginID
	startOrder     []dependency.PluginID
}

// DiscoverDeps configures manifest discovery.
type DiscoverDeps struct {
	// Dirs are the plugin roots to scan.
	Dirs []string
	// Initialize gates plugin setup and start; discovery and graph
	// validation still run when false.
	Initialize bool
	// LegacyBridgeID, when set, adds the synthetic legacy bridge node
	// depending on every discovered plugin.
	LegacyBridgeID dependency.PluginID
}

// NewService creates the plugins service.
func NewService() *Service {
	return &Service{
		factories:      make(map[dependency.PluginID]Factory),
		enabled:        make(map[dependency.PluginID]bool),
		instances:      make(map[dependency.PluginID]Plugin),
		setupContracts: make(DepContracts),
		startContracts: make(DepContracts),
	}
}

// RegisterFactory binds an implementation to a manifest id. Factories must
// be registered before discovery.
func (s *Service) RegisterFactory(id dependency.PluginID, factory Factory) error {
	if id == "" {
		return fmt.Errorf("register plugin factory: id must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("register plugin factory '%s': factory must not be nil", id)
	}
	if s.graph != nil {
		return fmt.Errorf("register plugin factory '%s': discovery already ran", id)
	}
	if _, exists := s.factories[id]; exists {
		return fmt.Errorf("register plugin factory '%s': already registered", id)
	}
	s.factories[id] = factory
	return nil
}

// Discover scans the plugin roots, builds and validates the dependency
// graph, and decides which plugins are enabled. A manifest without a
// registered factory disables the plugin; disablement cascades through
// required dependencies.
func (s *Service) Discover(ctx context.Context, deps DiscoverDeps) (*dependency.Graph, error) {
	manifests, err := discoverManifests(ctx, deps.Dirs)
	if err != nil {
		return nil, fmt.Errorf("plugin discovery: %w", err)
	}
	s.manifests = manifests
	s.initialize = deps.Initialize

	graph := dependency.New()
	for _, m := range manifests {
		graph.AddNode(dependency.Node{
			ID:                m.ID,
			Kind:              dependency.KindPlugin,
			DependsOn:         m.RequiredPlugins,
			OptionalDependsOn: m.OptionalPlugins,
		})
	}
	if deps.LegacyBridgeID != "" {
		bridgeDeps := make([]dependency.PluginID, 0, len(manifests))
		for _, m := range manifests {
			bridgeDeps = append(bridgeDeps, m.ID)
		}
		graph.AddNode(dependency.Node{
			ID:        deps.LegacyBridgeID,
			Kind:      dependency.KindLegacyBridge,
			DependsOn: bridgeDeps,
		})
	}
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("plugin discovery: %w", err)
	}
	s.graph = graph

	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("plugin discovery: %w", err)
	}

	for _, id := range order {
		node := graph.Get(id)
		if node.Kind != dependency.KindPlugin {
			continue
		}
		enabled := s.factories[id] != nil
		if !enabled {
			logging.Warn("PluginsService", "Plugin '%s' has no registered implementation; disabling", id)
		}
		for _, dep := range node.DependsOn {
			if !s.enabled[dep] {
				enabled = false
				logging.Warn("PluginsService", "Plugin '%s' disabled: required dependency '%s' is unavailable", id, dep)
				break
			}
		}
		s.enabled[id] = enabled
		if enabled {
			s.order = append(s.order, id)
		}
	}

	logging.Info("PluginsService", "Discovered %d plugins, %d enabled", len(manifests), len(s.order))
	return graph, nil
}

// Graph returns the validated dependency graph. Nil before discovery.
func (s *Service) Graph() *dependency.Graph {
	return s.graph
}

// Enabled returns the enabled plugin ids in setup order.
func (s *Service) Enabled() []dependency.PluginID {
	return append([]dependency.PluginID(nil), s.order...)
}

// Setup instantiates every enabled plugin and runs its setup phase in
// dependency order, threading dependency contracts through.
func (s *Service) Setup(core *api.CoreSetup) error {
	if s.graph == nil {
		return fmt.Errorf("plugins setup: discovery has not run")
	}
	if !s.initialize {
		logging.Info("PluginsService", "Plugin initialization is disabled; skipping setup")
		return nil
	}

	for _, id := range s.order {
		instance := s.factories[id]()
		s.instances[id] = instance

		contract, err := instance.Setup(core, s.depContracts(id, s.setupContracts))
		if err != nil {
			return fmt.Errorf("plugin '%s' setup: %w", id, err)
		}
		s.setupContracts[id] = contract
		s.setupOrder = append(s.setupOrder, id)
		logging.Debug("PluginsService", "Plugin '%s' set up", id)
	}
	return nil
}

// Start runs the start phase of every set-up plugin in dependency order.
func (s *Service) Start(ctx context.Context, core *api.CoreStart) error {
	for _, id := range s.setupOrder {
		contract, err := s.instances[id].Start(ctx, core, s.depContracts(id, s.startContracts))
		if err != nil {
			return fmt.Errorf("plugin '%s' start: %w", id, err)
		}
		s.startContracts[id] = contract
		s.startOrder = append(s.startOrder, id)
		logging.Debug("PluginsService", "Plugin '%s' started", id)
	}
	return nil
}

// Stop stops plugins in reverse setup order. Every plugin is stopped even if
// an earlier one fails; errors are collected. A second Stop is a no-op.
func (s *Service) Stop(ctx context.Context) error {
	var errs []error
	for i := len(s.setupOrder) - 1; i >= 0; i-- {
		id := s.setupOrder[i]
		if err := s.instances[id].Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("plugin '%s' stop: %w", id, err))
		}
	}
	s.setupOrder = nil
	s.startOrder = nil
	return errors.Join(errs...)
}

// SetupContract returns the setup contract a plugin exposed, or nil.
func (s *Service) SetupContract(id dependency.PluginID) interface{} {
	return s.setupContracts[id]
}

// depContracts collects the contracts of a plugin's effective dependencies.
func (s *Service) depContracts(id dependency.PluginID, from DepContracts) DepContracts {
	deps := make(DepContracts)
	for _, dep := range s.graph.Dependencies(id) {
		if contract, ok := from[dep]; ok {
			deps[dep] = contract
		}
	}
	return deps
}
