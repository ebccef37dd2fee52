package contexts

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"stratum/internal/dependency"
)

// ProviderFunc produces one named context contribution for a request. It is
// invoked concurrently across requests and must not retain the request
// beyond its own call.
type ProviderFunc func(ctx context.Context, req *http.Request) (interface{}, error)

type providerEntry struct {
	name    string
	owner   OwnerToken
	plugin  dependency.PluginID // empty for core-owned providers
	provide ProviderFunc
}

// Registry holds the named context providers and the dependency graph used
// to scope their visibility. Registration happens during setup; resolution
// happens concurrently per request afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]providerEntry
	graph   *dependency.Graph
}

// NewRegistry creates an empty registry. graph may be nil, in which case all
// providers are visible to every route.
func NewRegistry(graph *dependency.Graph) *Registry {
	return &Registry{
		entries: make(map[string]providerEntry),
		graph:   graph,
	}
}

// Register attaches a provider under a name. plugin identifies the
// registering plugin for visibility scoping; an empty plugin marks a
// core-owned provider visible to every route.
func (r *Registry) Register(owner OwnerToken, plugin dependency.PluginID, name string, provide ProviderFunc) error {
	if !owner.Valid() {
		return fmt.Errorf("register context '%s': owner token is invalid", name)
	}
	if name == "" {
		return fmt.Errorf("register context: name must not be empty")
	}
	if provide == nil {
		return fmt.Errorf("register context '%s': provider must not be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[name]; ok {
		return fmt.Errorf("register context '%s': already registered by %s", name, existing.owner)
	}

	r.entries[name] = providerEntry{
		name:    name,
		owner:   owner,
		plugin:  plugin,
		provide: provide,
	}
	return nil
}

// visible reports whether a provider may be observed by a route owned by
// forPlugin. Core routes (empty forPlugin) observe everything.
func (r *Registry) visible(forPlugin dependency.PluginID, entry providerEntry) bool {
	if entry.plugin == "" || forPlugin == "" {
		return true
	}
	if r.graph == nil {
		return true
	}
	return r.graph.Reach(forPlugin)[entry.plugin]
}

// Names returns the provider names visible to forPlugin, sorted.
func (r *Registry) Names(forPlugin dependency.PluginID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, entry := range r.entries {
		if r.visible(forPlugin, entry) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// NewHandlerContext builds the per-request context view for a route owned by
// forPlugin. Each call returns an independent instance; nothing is shared
// between concurrent requests except the read-only registry itself.
func (r *Registry) NewHandlerContext(ctx context.Context, req *http.Request, forPlugin dependency.PluginID) *HandlerContext {
	return &HandlerContext{
		ctx:       ctx,
		req:       req,
		registry:  r,
		forPlugin: forPlugin,
		resolved:  make(map[string]interface{}),
	}
}

// HandlerContext is the lazily-resolved view of registered context
// contributions for one request. Providers run at most once per request;
// the resolved value is memoized for subsequent Get calls.
type HandlerContext struct {
	ctx       context.Context
	req       *http.Request
	registry  *Registry
	forPlugin dependency.PluginID

	mu       sync.Mutex
	resolved map[string]interface{}
}

// Request returns the originating request.
func (h *HandlerContext) Request() *http.Request {
	return h.req
}

// Get resolves the named context contribution, invoking its provider on
// first access.
func (h *HandlerContext) Get(name string) (interface{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if value, ok := h.resolved[name]; ok {
		return value, nil
	}

	h.registry.mu.RLock()
	entry, ok := h.registry.entries[name]
	visible := ok && h.registry.visible(h.forPlugin, entry)
	h.registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("context '%s' is not registered", name)
	}
	if !visible {
		return nil, fmt.Errorf("context '%s' is not visible to plugin '%s'", name, h.forPlugin)
	}

	value, err := entry.provide(h.ctx, h.req)
	if err != nil {
		return nil, fmt.Errorf("resolve context '%s': %w", name, err)
	}

	h.resolved[name] = value
	return value, nil
}
