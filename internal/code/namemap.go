package code

// NameMap maps a word name to its op-table index within one module's
// lexical scope. A module's NameMap is seeded from its imports (copied, not
// shared, so a later local redefinition shadows the import without
// mutating it) and then extended by its own definitions.
type NameMap struct {
	byName map[string]int
	bound  []string // names Bind has assigned since this map was created, in order; read by internal/env to compute a module's default export set (everything it defined) when it has no explicit exports: directive. Clone starts a fresh one; Merge does not append to it, since importing a name isn't defining it.
}

// NewNameMap returns an empty name map.
func NewNameMap() *NameMap { return &NameMap{byName: map[string]int{}} }

// Clone returns an independent copy, used to seed an importing module's
// name map from an imported one.
func (n *NameMap) Clone() *NameMap {
	c := NewNameMap()
	for k, v := range n.byName {
		c.byName[k] = v
	}
	return c
}

// Merge copies every binding of other into n, overwriting on conflict; used
// when a module imports more than one other module.
func (n *NameMap) Merge(other *NameMap) {
	for k, v := range other.byName {
		n.byName[k] = v
	}
}

// Lookup returns the op-table index bound to name, if any.
func (n *NameMap) Lookup(name string) (int, bool) {
	i, ok := n.byName[name]
	return i, ok
}

// Bind associates name with an op-table index, shadowing any prior binding.
func (n *NameMap) Bind(name string, index int) {
	n.byName[name] = index
	n.bound = append(n.bound, name)
}

// Bound returns every name Bind has assigned since this map was created
// (duplicates possible on rebind), in assignment order.
func (n *NameMap) Bound() []string { return n.bound }

// Names returns every bound name, for diagnostics (e.g. `words` listing).
func (n *NameMap) Names() []string {
	names := make([]string, 0, len(n.byName))
	for k := range n.byName {
		names = append(names, k)
	}
	return names
}
