// Package dependency provides the directed acyclic graph (DAG) that models
// plugin dependencies in stratum.
//
// The graph is built once during plugin discovery and is read-only
// afterwards. It answers three questions for the rest of the system:
//
//  1. In which order must plugins be set up and started?
//     (TopologicalSort: dependencies before dependents)
//  2. Which plugins break if a given plugin is removed? (Dependents)
//  3. Which context providers may a plugin observe? (Reach: a plugin sees
//     itself and its transitive dependencies)
//
// # Dependency Rules
//
//  1. No circular dependencies (Validate rejects cycles)
//  2. Every required dependency must exist in the graph
//  3. Optional dependencies may be absent; they are dropped from ordering
//
// # The legacy bridge node
//
// The compatibility bridge to the deprecated plugin system is modeled as a
// single virtual node of kind KindLegacyBridge that depends on every other
// node. This gives the bridge visibility into every plugin's context while
// keeping the reverse direction closed. It is a one-directional shim, not a
// general graph feature; Validate enforces that nothing depends on it.
package dependency
