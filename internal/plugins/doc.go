// Package plugins discovers plugin manifests, resolves their dependency
// order, and drives plugin lifecycles.
//
// A plugin is declared by a plugin.yaml manifest in its own directory under
// one of the configured plugin roots. The manifest names the plugin and its
// required and optional dependencies. Implementations are compiled in and
// registered as factories; a manifest without a registered factory disables
// the plugin, and the disablement cascades to every plugin that requires it.
//
// Setup and start run in topological dependency order, each plugin receiving
// the contracts returned by the plugins it depends on. Stop runs in reverse.
package plugins
