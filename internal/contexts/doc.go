// Package contexts implements the request-context registry.
//
// Plugins (and the core itself) attach named context providers during setup.
// When a request arrives, the HTTP layer builds a HandlerContext for the
// route's owning plugin; the handler then pulls named contributions out of
// it. Providers run lazily, at most once per request, when the handler first
// asks for their name.
//
// Visibility is scoped through the plugin dependency graph: a route owned by
// plugin P only observes providers registered by P itself, by P's transitive
// dependencies, or by the core. Registration is keyed by an opaque
// OwnerToken created at process start and handed explicitly to registrants;
// there is no ambient process-wide registration key.
package contexts
