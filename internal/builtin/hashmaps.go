package builtin

import (
	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

func popHashmap(m code.Machine, op string) (value.Value, error) {
	s, err := m.Data().Pop()
	if err != nil {
		return value.Value{}, err
	}
	if s.V.Kind() != value.Hashmap {
		return value.Value{}, terr.VMError{Kind: terr.TypeMismatch, Op: op, Left: s.V.Kind().String()}
	}
	return s.V, nil
}

// opHashmapSet implements `key value hashmap set!`, mutating the hashmap in
// place (aliasing semantics match vector push!/set-nth!) and leaving the
// hashmap back on top so it can be chained.
func opHashmapSet(m code.Machine) error {
	hm, err := popHashmap(m, "set!")
	if err != nil {
		return err
	}
	val, err := m.Data().Pop()
	if err != nil {
		return err
	}
	key, err := m.Data().Pop()
	if err != nil {
		return err
	}
	if err := hm.HashmapSet(key.V, val); err != nil {
		return err
	}
	return m.Data().Push(value.New(hm))
}

// opHashmapGet implements `key hashmap get`, per the invariant that after
// `k v hm set!`, `k hm get` yields `v #t` — the present? bool is pushed
// first and the value on top, so `.` immediately after `get` inspects the
// value, matching the worked example `H{ ... } "a" over get . drop drop` →
// prints the value, then two drops clear the bool and the hashmap.
func opHashmapGet(m code.Machine) error {
	hm, err := popHashmap(m, "get")
	if err != nil {
		return err
	}
	key, err := m.Data().Pop()
	if err != nil {
		return err
	}
	s, ok := hm.HashmapGet(key.V)
	if !ok {
		if err := m.Data().Push(value.New(value.NewBool(false))); err != nil {
			return err
		}
		return m.Data().Push(value.New(value.NewInt(0)))
	}
	if err := m.Data().Push(value.New(value.NewBool(true))); err != nil {
		return err
	}
	return m.Data().Push(s.Dup())
}

func opHashmapDelete(m code.Machine) error {
	hm, err := popHashmap(m, "delete!")
	if err != nil {
		return err
	}
	key, err := m.Data().Pop()
	if err != nil {
		return err
	}
	hm.HashmapDelete(key.V)
	return m.Data().Push(value.New(hm))
}

func opHashmapHasKey(m code.Machine) error {
	hm, err := popHashmap(m, "has-key?")
	if err != nil {
		return err
	}
	key, err := m.Data().Pop()
	if err != nil {
		return err
	}
	_, ok := hm.HashmapGet(key.V)
	return m.Data().Push(value.New(value.NewBool(ok)))
}
