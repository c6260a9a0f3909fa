package value

import "github.com/tardi-lang/tardi/internal/terr"

// vector is the mutable backing store for a Vector value: an ordered
// sequence of SharedValue, addressable by index, with push/pop at either
// end.
type vector struct {
	items []*Shared
}

// NewVector wraps items (not copied) as a fresh Vector value.
func NewVector(items []*Shared) Value {
	return Value{kind: Vector, vec: &vector{items: items}}
}

// EmptyVector returns a new, empty Vector value.
func EmptyVector() Value { return NewVector(nil) }

func (v Value) VecLen() int { return len(v.vec.items) }

func (v Value) VecItems() []*Shared { return v.vec.items }

func (v Value) VecGet(i int) (*Shared, error) {
	if i < 0 || i >= len(v.vec.items) {
		return nil, terr.VMError{Kind: terr.IndexOutOfBounds, Op: "nth", Index: i}
	}
	return v.vec.items[i], nil
}

func (v Value) VecSet(i int, s *Shared) error {
	if i < 0 || i >= len(v.vec.items) {
		return terr.VMError{Kind: terr.IndexOutOfBounds, Op: "set-nth!", Index: i}
	}
	v.vec.items[i] = s
	return nil
}

// VecPushBack mutates the vector in place: all holders of this Value's
// vector pointer observe the push.
func (v Value) VecPushBack(s *Shared) {
	v.vec.items = append(v.vec.items, s)
}

func (v Value) VecPushFront(s *Shared) {
	v.vec.items = append([]*Shared{s}, v.vec.items...)
}

func (v Value) VecPopBack() (*Shared, error) {
	n := len(v.vec.items)
	if n == 0 {
		return nil, terr.VMError{Kind: terr.EmptyList, Op: "pop!"}
	}
	s := v.vec.items[n-1]
	v.vec.items = v.vec.items[:n-1]
	return s, nil
}

func (v Value) VecPopFront() (*Shared, error) {
	if len(v.vec.items) == 0 {
		return nil, terr.VMError{Kind: terr.EmptyList, Op: "pop-front!"}
	}
	s := v.vec.items[0]
	v.vec.items = v.vec.items[1:]
	return s, nil
}
