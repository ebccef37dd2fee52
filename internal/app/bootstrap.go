package app

import (
	"fmt"
	"io"
	"os"

	"stratum/internal/config"
	"stratum/internal/server"
	"stratum/pkg/logging"
)

// Application bundles everything a running stratum process needs.
type Application struct {
	config *Config
	cfg    *config.Service
	server *server.Server
}

// NewApplication performs the bootstrap sequence: initialize logging from the
// command-line settings, create the config service, construct the server,
// register the config schemas and load the configuration file. Validation
// happens later, inside server.Setup.
func NewApplication(appCfg *Config) (*Application, error) {
	level := logging.LevelInfo
	if appCfg.Debug {
		level = logging.LevelDebug
	}
	var output io.Writer = os.Stdout
	if appCfg.Silent {
		output = io.Discard
	}
	logging.Init(level, logging.FormatText, output)

	cfg := config.NewService(appCfg.ConfigPath)
	srv := server.New(cfg)

	if err := srv.RegisterConfigSchemas(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if err := cfg.Load(); err != nil {
		logging.Error("Bootstrap", err, "Cannot load configuration from %s", appCfg.ConfigPath)
		return nil, fmt.Errorf("bootstrap: load configuration: %w", err)
	}
	logging.Info("Bootstrap", "Configuration loaded from %s", appCfg.ConfigPath)

	return &Application{
		config: appCfg,
		cfg:    cfg,
		server: srv,
	}, nil
}

// Server exposes the orchestrator so commands can register plugin factories
// and legacy initializers before Run.
func (a *Application) Server() *server.Server {
	return a.server
}

// ConfigService exposes the loaded configuration.
func (a *Application) ConfigService() *config.Service {
	return a.cfg
}

// reconfigureLogging applies the validated logging section. Command-line
// debug keeps precedence over the configured level.
func (a *Application) reconfigureLogging() {
	section, err := a.cfg.Section(config.NamespaceLogging)
	if err != nil {
		return
	}
	logCfg := section.(*config.LoggingConfig)

	level := logging.ParseLevel(logCfg.Level)
	if a.config.Debug {
		level = logging.LevelDebug
	}
	var output io.Writer = os.Stdout
	if logCfg.Dest == "stderr" {
		output = os.Stderr
	}
	if a.config.Silent {
		output = io.Discard
	}
	logging.Init(level, logCfg.Format, output)
}
