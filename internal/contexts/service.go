package contexts

import (
	"stratum/internal/dependency"
	"stratum/pkg/logging"
)

// Service owns the context registry for the lifetime of the server.
type Service struct {
	registry *Registry
}

// SetupDeps carries what the context service needs from the orchestrator.
type SetupDeps struct {
	// PluginGraph scopes provider visibility. It must be fully built before
	// setup; the registry treats it as read-only.
	PluginGraph *dependency.Graph
}

// SetupContract is what the context service exposes to dependents.
type SetupContract struct {
	registry *Registry
}

// NewService creates the context service.
func NewService() *Service {
	return &Service{}
}

// Setup builds the registry against the discovered plugin graph.
func (s *Service) Setup(deps SetupDeps) *SetupContract {
	s.registry = NewRegistry(deps.PluginGraph)
	logging.Debug("ContextService", "Context registry initialized (graph nodes: %d)", graphLen(deps.PluginGraph))
	return &SetupContract{registry: s.registry}
}

func graphLen(g *dependency.Graph) int {
	if g == nil {
		return 0
	}
	return g.Len()
}

// RegisterContext attaches a named provider on behalf of owner.
func (c *SetupContract) RegisterContext(owner OwnerToken, plugin dependency.PluginID, name string, provide ProviderFunc) error {
	return c.registry.Register(owner, plugin, name, provide)
}

// Registry returns the registry for the HTTP layer to resolve requests
// against.
func (c *SetupContract) Registry() *Registry {
	return c.registry
}
