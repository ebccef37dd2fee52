package capabilities

// Capabilities maps a scope (feature area) to its named switches.
type Capabilities map[string]map[string]bool

// Clone deep-copies the set.
func (c Capabilities) Clone() Capabilities {
	cloned := make(Capabilities, len(c))
	for scope, switches := range c {
		copied := make(map[string]bool, len(switches))
		for name, enabled := range switches {
			copied[name] = enabled
		}
		cloned[scope] = copied
	}
	return cloned
}

// merge folds other into c, later contributions winning on conflict.
func (c Capabilities) merge(other Capabilities) {
	for scope, switches := range other {
		existing, ok := c[scope]
		if !ok {
			existing = make(map[string]bool, len(switches))
			c[scope] = existing
		}
		for name, enabled := range switches {
			existing[name] = enabled
		}
	}
}

// restrict drops every entry of c not present in base. Switchers may toggle
// capabilities but never invent them.
func (c Capabilities) restrict(base Capabilities) {
	for scope, switches := range c {
		baseSwitches, ok := base[scope]
		if !ok {
			delete(c, scope)
			continue
		}
		for name := range switches {
			if _, ok := baseSwitches[name]; !ok {
				delete(switches, name)
			}
		}
	}
}
