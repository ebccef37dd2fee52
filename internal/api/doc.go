// Package api defines the contracts the server hands to plugins and legacy
// initializers.
//
// CoreSetup and CoreStart are immutable bundles of the per-service
// contracts, assembled by the orchestrator at the end of each phase.
// CoreRequestContext is the per-request view registered under the "core"
// context name; every handler resolves its own instance so concurrent
// requests never share scoped clients.
package api
