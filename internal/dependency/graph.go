package dependency

import (
	"fmt"
	"sort"
)

// PluginID is the unique identifier of a node inside the dependency graph.
type PluginID string

// NodeKind categorises nodes. The platform needs just two kinds, but we keep
// it extensible.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindPlugin
	// KindLegacyBridge marks the synthetic node representing the legacy
	// plugin system. Exactly one such node may exist.
	KindLegacyBridge
)

// Node represents a plugin together with its dependency lists.
type Node struct {
	ID   PluginID
	Kind NodeKind
	// DependsOn lists required dependencies. They must exist in the graph.
	DependsOn []PluginID
	// OptionalDependsOn lists dependencies used when present. Missing ones
	// are ignored during ordering and reach computation.
	OptionalDependsOn []PluginID
}

// Graph is a small helper to answer dependency queries. It is not
// thread-safe during construction; it is effectively read-only after
// discovery completes, which is when concurrent readers appear.
type Graph struct {
	nodes map[PluginID]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[PluginID]*Node)}
}

// AddNode adds (or replaces) a node in the graph.
func (g *Graph) AddNode(n Node) {
	if g.nodes == nil {
		g.nodes = make(map[PluginID]*Node)
	}
	// Copy to avoid external mutations
	copied := n
	g.nodes[n.ID] = &copied
}

// Get returns a pointer to the stored node or nil if it does not exist.
func (g *Graph) Get(id PluginID) *Node {
	return g.nodes[id]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// IDs returns all node IDs in lexical order.
func (g *Graph) IDs() []PluginID {
	ids := make([]PluginID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// effectiveDeps returns required deps plus those optional deps that exist.
func (g *Graph) effectiveDeps(n *Node) []PluginID {
	deps := make([]PluginID, 0, len(n.DependsOn)+len(n.OptionalDependsOn))
	deps = append(deps, n.DependsOn...)
	for _, dep := range n.OptionalDependsOn {
		if _, ok := g.nodes[dep]; ok {
			deps = append(deps, dep)
		}
	}
	return deps
}

// Dependencies returns the immediate effective dependency IDs for a node.
func (g *Graph) Dependencies(id PluginID) []PluginID {
	if n, ok := g.nodes[id]; ok {
		return g.effectiveDeps(n)
	}
	return nil
}

// Dependents returns all node IDs that have a direct dependency on the given
// node. O(n) walk, but plugin graphs are small.
func (g *Graph) Dependents(id PluginID) []PluginID {
	var res []PluginID
	for _, n := range g.nodes {
		for _, dep := range g.effectiveDeps(n) {
			if dep == id {
				res = append(res, n.ID)
				break
			}
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Reach returns the set of nodes a plugin may observe: itself plus its
// transitive effective dependencies. Context provider visibility is scoped
// with this set.
func (g *Graph) Reach(id PluginID) map[PluginID]bool {
	reach := make(map[PluginID]bool)
	if _, ok := g.nodes[id]; !ok {
		return reach
	}

	var visit func(PluginID)
	visit = func(current PluginID) {
		if reach[current] {
			return
		}
		reach[current] = true
		n, ok := g.nodes[current]
		if !ok {
			return
		}
		for _, dep := range g.effectiveDeps(n) {
			visit(dep)
		}
	}
	visit(id)
	return reach
}

// Validate checks structural invariants: required dependencies exist, the
// graph is acyclic, and at most one legacy bridge node exists with no
// dependents.
func (g *Graph) Validate() error {
	var bridge PluginID
	for _, n := range g.nodes {
		for _, dep := range n.DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				return fmt.Errorf("plugin '%s' requires missing plugin '%s'", n.ID, dep)
			}
		}
		if n.Kind == KindLegacyBridge {
			if bridge != "" {
				return fmt.Errorf("multiple legacy bridge nodes: '%s' and '%s'", bridge, n.ID)
			}
			bridge = n.ID
		}
	}

	if bridge != "" {
		if deps := g.Dependents(bridge); len(deps) > 0 {
			return fmt.Errorf("plugins %v depend on the legacy bridge '%s'; the bridge is one-directional", deps, bridge)
		}
	}

	if _, err := g.TopologicalSort(); err != nil {
		return err
	}
	return nil
}

// TopologicalSort orders nodes so every node appears after its effective
// dependencies. Ties are broken lexically so the order is deterministic.
// Returns an error naming a member of the cycle when the graph is cyclic.
func (g *Graph) TopologicalSort() ([]PluginID, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[PluginID]int, len(g.nodes))
	order := make([]PluginID, 0, len(g.nodes))

	var visit func(PluginID) error
	visit = func(id PluginID) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("circular plugin dependency involving '%s'", id)
		}
		state[id] = visiting

		n := g.nodes[id]
		deps := g.effectiveDeps(n)
		sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
		for _, dep := range deps {
			if _, ok := g.nodes[dep]; !ok {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		state[id] = done
		order = append(order, id)
		return nil
	}

	for _, id := range g.IDs() {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}
