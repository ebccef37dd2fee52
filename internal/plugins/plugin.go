package plugins

import (
	"context"

	"stratum/internal/api"
	"stratum/internal/dependency"
)

// DepContracts maps a dependency's plugin id to the contract it returned
// from the corresponding phase. Optional dependencies that are absent or
// disabled simply have no entry.
type DepContracts map[dependency.PluginID]interface{}

// Plugin is one compiled-in plugin implementation.
//
// Setup and Start return the plugin's contract for that phase, handed to
// every dependent plugin. Either may return nil when the plugin exposes
// nothing.
type Plugin interface {
	Setup(core *api.CoreSetup, deps DepContracts) (interface{}, error)
	Start(ctx context.Context, core *api.CoreStart, deps DepContracts) (interface{}, error)
	Stop(ctx context.Context) error
}

// Factory builds a fresh plugin instance. One factory is registered per
// manifest id.
type Factory func() Plugin
