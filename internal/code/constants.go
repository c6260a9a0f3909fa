package code

import "github.com/tardi-lang/tardi/internal/value"

// Constants is the process-wide constant pool addressed by LitConst. Every
// literal encountered by the compiler (numbers, strings, chars, booleans,
// and vector/hashmap literals built from them) is interned here once; the
// instruction stream only ever carries its index.
type Constants struct {
	items []*value.Shared
}

// NewConstants returns an empty constant pool.
func NewConstants() *Constants { return &Constants{} }

// Intern appends v to the pool and returns its index.
//
// Unlike NameMap lookups, constants are never deduplicated by value: two
// occurrences of the same literal in source get distinct slots, so that
// mutating one occurrence's runtime value (e.g. a vector literal later
// pushed onto and popped from) can never be observed through the other.
func (c *Constants) Intern(v *value.Shared) int {
	c.items = append(c.items, v)
	return len(c.items) - 1
}

// Get returns the constant at index i.
func (c *Constants) Get(i int) *value.Shared {
	if i < 0 || i >= len(c.items) {
		return nil
	}
	return c.items[i]
}

// Len reports how many constants have been interned.
func (c *Constants) Len() int { return len(c.items) }
