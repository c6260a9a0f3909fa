package value

import (
	"fmt"

	"github.com/tardi-lang/tardi/internal/terr"
)

// hashKey is the frozen, comparable projection of a hashmap key: only
// strings, integers, booleans and characters may be keys, and keys are
// copied into an immutable form at insertion so that later mutation of a
// source value cannot corrupt the map.
type hashKey struct {
	kind Kind
	i    int64
	b    bool
	ch   rune
	s    string
}

func makeHashKey(v Value) (hashKey, error) {
	switch v.kind {
	case Int:
		return hashKey{kind: Int, i: v.i}, nil
	case Bool:
		return hashKey{kind: Bool, b: v.b}, nil
	case Char:
		return hashKey{kind: Char, ch: v.ch}, nil
	case String:
		return hashKey{kind: String, s: v.s}, nil
	default:
		return hashKey{}, terr.VMError{Kind: terr.TypeMismatch, Op: "hashmap key", Left: v.kind.String()}
	}
}

func (k hashKey) toValue() Value {
	switch k.kind {
	case Int:
		return NewInt(k.i)
	case Bool:
		return NewBool(k.b)
	case Char:
		return NewChar(k.ch)
	default:
		return NewString(k.s)
	}
}

// Hashmap is the mutable backing store for a Hashmap value.
type Hashmap struct {
	entries map[hashKey]*Shared
	order   []hashKey // insertion order is tracked but not guaranteed on iteration
}

func newHashmap() *Hashmap {
	return &Hashmap{entries: make(map[hashKey]*Shared)}
}

// NewHashmap returns a new, empty Hashmap value.
func NewHashmap() Value {
	return Value{kind: Hashmap, hm: newHashmap()}
}

func (hm *Hashmap) set(k hashKey, s *Shared) {
	if _, exists := hm.entries[k]; !exists {
		hm.order = append(hm.order, k)
	}
	hm.entries[k] = s
}

func (v Value) HashmapSet(key Value, val *Shared) error {
	k, err := makeHashKey(key)
	if err != nil {
		return err
	}
	v.hm.set(k, val)
	return nil
}

func (v Value) HashmapGet(key Value) (*Shared, bool) {
	k, err := makeHashKey(key)
	if err != nil {
		return nil, false
	}
	s, ok := v.hm.entries[k]
	return s, ok
}

func (v Value) HashmapDelete(key Value) bool {
	k, err := makeHashKey(key)
	if err != nil {
		return false
	}
	if _, ok := v.hm.entries[k]; !ok {
		return false
	}
	delete(v.hm.entries, k)
	for i, o := range v.hm.order {
		if o == k {
			v.hm.order = append(v.hm.order[:i], v.hm.order[i+1:]...)
			break
		}
	}
	return true
}

func (v Value) HashmapLen() int { return len(v.hm.order) }

// HashmapEach iterates key/value pairs in insertion order (a convenience for
// deterministic rendering; this order is not guaranteed to be preserved
// across mutation-heavy use, only that iteration completes).
func (v Value) HashmapEach(f func(key Value, val *Shared)) {
	for _, k := range v.hm.order {
		f(k.toValue(), v.hm.entries[k])
	}
}

func (k hashKey) String() string {
	return fmt.Sprintf("%v", k.toValue())
}
