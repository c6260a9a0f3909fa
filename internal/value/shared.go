package value

// Shared is the interior-mutable cell every stack slot and container element
// holds its Value through. Two stack copies of the same *Shared alias the
// same storage: mutating the Value reachable from one is observable through
// any other holder of the same pointer.
//
// A host language without a tracing collector would need manual reference
// counting here, and would have to accept a documented cycle leak. Go's
// garbage collector already traces through *Shared and container pointers
// and reclaims cycles natively, so New simply returns a pointer: the
// required aliasing semantics are preserved and no cycle-leak problem
// applies. See DESIGN.md for this resolved Open Question.
type Shared struct {
	V Value
}

// New allocates a fresh cell holding v.
func New(v Value) *Shared { return &Shared{V: v} }

// Dup returns the same pointer: dup (and any other operation that copies a
// stack slot) duplicates the share, not the underlying storage.
func (s *Shared) Dup() *Shared { return s }

// Clone allocates a new cell with a deep copy of s's contents, for where a
// genuinely fresh, unaliased value is required. (Hashmap keys are frozen
// separately, by makeHashKey.)
func (s *Shared) Clone() *Shared {
	if s == nil {
		return New(Value{})
	}
	return New(cloneValue(s.V))
}

func cloneValue(v Value) Value {
	switch v.kind {
	case Vector:
		items := make([]*Shared, len(v.vec.items))
		for i, it := range v.vec.items {
			items[i] = it.Clone()
		}
		return Value{kind: Vector, vec: &vector{items: items}}
	case Hashmap:
		hm := newHashmap()
		for _, k := range v.hm.order {
			hm.set(k, v.hm.entries[k].Clone())
		}
		return Value{kind: Hashmap, hm: hm}
	default:
		return v
	}
}

// Equal reports structural equality of the contained values: equality on
// SharedValue is by contained value, not by identity.
func (s *Shared) Equal(o *Shared) bool {
	if s == nil || o == nil {
		return s == o
	}
	return Equal(s.V, o.V)
}

// Equal reports structural equality between two Values.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		// Values of different kinds are never equal: an Int and a Float
		// holding the same number compare unequal here, even though the
		// arithmetic and ordering words promote mixed int/float operands.
		return false
	}
	switch a.kind {
	case Int:
		return a.i == b.i
	case Float:
		return a.f == b.f
	case Bool:
		return a.b == b.b
	case Char:
		return a.ch == b.ch
	case String:
		return a.s == b.s
	case Address:
		return a.addr == b.addr
	case Vector:
		if len(a.vec.items) != len(b.vec.items) {
			return false
		}
		for i := range a.vec.items {
			if !a.vec.items[i].Equal(b.vec.items[i]) {
				return false
			}
		}
		return true
	case Hashmap:
		if len(a.hm.order) != len(b.hm.order) {
			return false
		}
		for k, av := range a.hm.entries {
			bv, ok := b.hm.entries[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	case Lambda:
		return a.lam == b.lam
	case Writer, Reader:
		return a.rw == b.rw
	case Error:
		return a.err == b.err
	default:
		return false
	}
}
