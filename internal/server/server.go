package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"stratum/internal/api"
	"stratum/internal/capabilities"
	"stratum/internal/config"
	"stratum/internal/contexts"
	"stratum/internal/dependency"
	"stratum/internal/elasticsearch"
	"stratum/internal/httpserver"
	"stratum/internal/legacy"
	"stratum/internal/plugins"
	"stratum/internal/savedobjects"
	"stratum/internal/uisettings"
	"stratum/pkg/logging"
)

// Version is reported by the core health route.
const Version = "0.0.1"

// stopper is one teardown step in the stop sequence.
type stopper interface {
	Stop(ctx context.Context) error
}

type stopStep struct {
	name    string
	service stopper
}

// Server is the root orchestrator. It owns every core service for its
// lifetime and is driven through RegisterConfigSchemas, Setup, Start, Stop.
type Server struct {
	cfg *config.Service

	contextSvc      *contexts.Service
	httpSvc         *httpserver.Service
	capabilitiesSvc *capabilities.Service
	esSvc           *elasticsearch.Service
	uiSettingsSvc   *uisettings.Service
	savedObjectsSvc *savedobjects.Service
	pluginsSvc      *plugins.Service
	legacySvc       *legacy.Service

	mu        sync.Mutex
	phase     Phase
	startedAt time.Time

	coreSetup *api.CoreSetup
	coreStart *api.CoreStart

	stopSequence []stopStep
}

// New creates a server around a config service. Nothing runs until Setup.
func New(cfg *config.Service) *Server {
	return &Server{
		cfg:             cfg,
		contextSvc:      contexts.NewService(),
		httpSvc:         httpserver.NewService(),
		capabilitiesSvc: capabilities.NewService(),
		esSvc:           elasticsearch.NewService(),
		uiSettingsSvc:   uisettings.NewService(),
		savedObjectsSvc: savedobjects.NewService(),
		pluginsSvc:      plugins.NewService(),
		legacySvc:       legacy.NewService(),
	}
}

// Phase returns the current lifecycle phase.
func (s *Server) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// RegisterPluginFactory binds a compiled-in plugin implementation to its
// manifest id. Must precede Setup.
func (s *Server) RegisterPluginFactory(id dependency.PluginID, factory plugins.Factory) error {
	return s.pluginsSvc.RegisterFactory(id, factory)
}

// RegisterLegacyInitializer hooks a legacy subsystem into the lifecycle.
// Must precede Setup.
func (s *Server) RegisterLegacyInitializer(init legacy.Initializer) error {
	return s.legacySvc.RegisterInitializer(init)
}

// RegisterConfigSchemas registers the typed schema of every known
// configuration namespace. Must run before the configuration is loaded so
// validation sees up-to-date schemas.
func (s *Server) RegisterConfigSchemas() error {
	if err := s.advance(PhaseCreated, PhaseConfigured, "RegisterConfigSchemas"); err != nil {
		return err
	}

	schemas := map[string]config.SchemaFactory{
		config.NamespaceElasticsearch: func() config.Schema { return &config.ElasticsearchConfig{} },
		config.NamespaceLogging:       func() config.Schema { return &config.LoggingConfig{} },
		config.NamespaceHTTP:          func() config.Schema { return &config.HTTPConfig{} },
		config.NamespacePlugins:       func() config.Schema { return &config.PluginsConfig{} },
		config.NamespaceDev:           func() config.Schema { return &config.DevConfig{} },
		config.NamespaceStratum:       func() config.Schema { return &config.StratumConfig{} },
		config.NamespaceSavedObjects:  func() config.Schema { return &config.SavedObjectsConfig{} },
		config.NamespaceUISettings:    func() config.Schema { return &config.UISettingsConfig{} },
	}
	for namespace, factory := range schemas {
		if err := s.cfg.RegisterSchema(namespace, factory); err != nil {
			return fmt.Errorf("register config schemas: %w", err)
		}
	}
	return nil
}

// Setup runs exactly once. It validates configuration (fatal on any invalid
// section), discovers plugins so the dependency graph is known before any
// service initializes, then sets services up in fixed order, threading each
// contract forward. No network traffic is accepted yet.
func (s *Server) Setup(ctx context.Context) (coreSetup *api.CoreSetup, err error) {
	if err := s.advance(PhaseConfigured, PhaseSetUp, "Setup"); err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		// A failed setup ends the lifecycle. Tear down whatever partially
		// came up; both stops are safe on a service that never set up.
		s.mu.Lock()
		s.phase = PhaseStopped
		s.mu.Unlock()
		_ = s.esSvc.Stop(context.Background())
		_ = s.httpSvc.Stop(context.Background())
	}()

	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration is invalid: %w", err)
	}

	pluginsCfg := s.section(config.NamespacePlugins).(*config.PluginsConfig)
	httpCfg := s.section(config.NamespaceHTTP).(*config.HTTPConfig)
	stratumCfg := s.section(config.NamespaceStratum).(*config.StratumConfig)
	savedObjectsCfg := s.section(config.NamespaceSavedObjects).(*config.SavedObjectsConfig)
	uiSettingsCfg := s.section(config.NamespaceUISettings).(*config.UISettingsConfig)

	graph, err := s.pluginsSvc.Discover(ctx, plugins.DiscoverDeps{
		Dirs:           append([]string{pluginsCfg.Dir}, pluginsCfg.AdditionalDirs...),
		Initialize:     pluginsCfg.ShouldInitialize(),
		LegacyBridgeID: legacy.BridgeID,
	})
	if err != nil {
		return nil, err
	}

	contextContract := s.contextSvc.Setup(contexts.SetupDeps{PluginGraph: graph})

	httpContract, err := s.httpSvc.Setup(httpserver.SetupDeps{
		Config:   *httpCfg,
		Contexts: contextContract.Registry(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.registerCoreRoutes(httpContract); err != nil {
		return nil, err
	}

	capabilitiesContract, err := s.capabilitiesSvc.Setup(capabilities.SetupDeps{})
	if err != nil {
		return nil, err
	}

	esContract, err := s.esSvc.Setup(ctx, elasticsearch.SetupDeps{Config: s.cfg})
	if err != nil {
		return nil, err
	}

	uiSettingsContract, err := s.uiSettingsSvc.Setup(uisettings.SetupDeps{
		Overrides: uiSettingsCfg.Overrides,
	})
	if err != nil {
		return nil, err
	}

	savedObjectsContract, err := s.savedObjectsSvc.Setup(savedobjects.SetupDeps{
		AdminSource: esContract.AdminSource(),
		Index:       stratumCfg.Index,
		BatchSize:   savedObjectsCfg.BatchSize,
	})
	if err != nil {
		return nil, err
	}

	if err := s.registerCoreContext(contextContract, esContract, savedObjectsContract); err != nil {
		return nil, err
	}

	coreSetup = &api.CoreSetup{
		Contexts:      contextContract,
		HTTP:          httpContract,
		Capabilities:  capabilitiesContract,
		Elasticsearch: esContract,
		UiSettings:    uiSettingsContract,
		SavedObjects:  savedObjectsContract,
	}

	if err := s.pluginsSvc.Setup(coreSetup); err != nil {
		return nil, err
	}
	if err := s.legacySvc.Setup(coreSetup); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.coreSetup = coreSetup
	s.stopSequence = []stopStep{
		{"legacy", s.legacySvc},
		{"plugins", s.pluginsSvc},
		{"savedObjects", s.savedObjectsSvc},
		{"elasticsearch", s.esSvc},
		{"http", s.httpSvc},
	}
	s.mu.Unlock()

	logging.Info("Server", "Setup complete ('%s')", stratumCfg.Name)
	return coreSetup, nil
}

// Start runs after Setup, exactly once. Backing services start first; the
// listener opens last so no request races initialization.
func (s *Server) Start(ctx context.Context) (coreStart *api.CoreStart, err error) {
	if err := s.advance(PhaseSetUp, PhaseStarted, "Start"); err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		// A failed start leaves the server set up; the caller is expected
		// to Stop it, which tears down whatever did start.
		s.mu.Lock()
		s.phase = PhaseSetUp
		s.mu.Unlock()
	}()

	savedObjectsStart, err := s.savedObjectsSvc.Start(ctx, savedobjects.StartDeps{})
	if err != nil {
		return nil, err
	}

	capabilitiesStart, err := s.capabilitiesSvc.Start(ctx, capabilities.StartDeps{})
	if err != nil {
		return nil, err
	}

	uiSettingsStart, err := s.uiSettingsSvc.Start(ctx, uisettings.StartDeps{
		StoreFor: func(req *http.Request) uisettings.ObjectStore {
			return savedObjectsStart.ScopedClient(req)
		},
	})
	if err != nil {
		return nil, err
	}

	coreStart = &api.CoreStart{
		Capabilities: capabilitiesStart,
		SavedObjects: savedObjectsStart,
		UiSettings:   uiSettingsStart,
	}

	if err := s.pluginsSvc.Start(ctx, coreStart); err != nil {
		return nil, err
	}
	if err := s.legacySvc.Start(ctx, coreStart); err != nil {
		return nil, err
	}

	httpStart, err := s.httpSvc.Start(ctx, httpserver.StartDeps{})
	if err != nil {
		return nil, err
	}
	coreStart.HTTP = httpStart

	s.mu.Lock()
	s.coreStart = coreStart
	s.startedAt = time.Now()
	s.mu.Unlock()

	logging.Info("Server", "Started, serving on %s", httpStart.Addr())
	return coreStart, nil
}

// Stop tears down legacy, plugins, saved objects, elasticsearch and http, in
// that order. Every step runs even when an earlier one fails; errors are
// collected. A second Stop is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseStopped {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseStopped
	sequence := s.stopSequence
	s.stopSequence = nil
	s.mu.Unlock()

	var errs []error
	for _, step := range sequence {
		if err := step.service.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", step.name, err))
			logging.Error("Server", err, "Service '%s' failed to stop", step.name)
		}
	}

	logging.Info("Server", "Stopped")
	return errors.Join(errs...)
}

// CoreSetup returns the aggregated setup contract, nil before Setup.
func (s *Server) CoreSetup() *api.CoreSetup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coreSetup
}

// CoreStart returns the aggregated start contract, nil before Start.
func (s *Server) CoreStart() *api.CoreStart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coreStart
}

// advance moves the phase machine forward or reports why it cannot.
func (s *Server) advance(from, to Phase, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != from {
		return fmt.Errorf("%s requires phase '%s', server is '%s'", op, from, s.phase)
	}
	s.phase = to
	return nil
}

// section returns a validated configuration section. Only called after
// Validate succeeded, so a failure here is a programming error.
func (s *Server) section(namespace string) config.Schema {
	section, err := s.cfg.Section(namespace)
	if err != nil {
		panic(fmt.Sprintf("config section '%s' unavailable after validation: %v", namespace, err))
	}
	return section
}
