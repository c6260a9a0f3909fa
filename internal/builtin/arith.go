// Package builtin implements Tardi's native word library: arithmetic,
// comparisons, I/O, string/vector/hashmap operations, and the scanner hooks
// immediate macros call back into. Each native is a code.NativeFn closure
// registered into a shared code.OpTable by Register.
package builtin

import (
	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

// binNumeric pops two numeric values (b then a, so `a b op` matches stack
// order) and applies f, promoting to float if either operand is a float,
// generalizing integer-only subtract/multiply/divide to int/float.
func binNumeric(op string, m code.Machine, f func(a, b float64) (float64, bool), fi func(a, b int64) (int64, bool)) error {
	bs, err := m.Data().Pop()
	if err != nil {
		return err
	}
	as, err := m.Data().Pop()
	if err != nil {
		return err
	}
	a, b := as.V, bs.V
	if !a.IsNumeric() || !b.IsNumeric() {
		return terr.VMError{Kind: terr.TypeMismatch, Op: op, Left: a.Kind().String(), Right: b.Kind().String()}
	}
	if a.Kind() == value.Int && b.Kind() == value.Int && fi != nil {
		r, ok := fi(a.Int(), b.Int())
		if !ok {
			return terr.VMError{Kind: terr.DivisionByZero, Op: op}
		}
		return m.Data().Push(value.New(value.NewInt(r)))
	}
	r, ok := f(a.AsFloat(), b.AsFloat())
	if !ok {
		return terr.VMError{Kind: terr.DivisionByZero, Op: op}
	}
	return m.Data().Push(value.New(value.NewFloat(r)))
}

func opAdd(m code.Machine) error {
	return binNumeric("+", m,
		func(a, b float64) (float64, bool) { return a + b, true },
		func(a, b int64) (int64, bool) { return a + b, true })
}

func opSub(m code.Machine) error {
	return binNumeric("-", m,
		func(a, b float64) (float64, bool) { return a - b, true },
		func(a, b int64) (int64, bool) { return a - b, true })
}

func opMul(m code.Machine) error {
	return binNumeric("*", m,
		func(a, b float64) (float64, bool) { return a * b, true },
		func(a, b int64) (int64, bool) { return a * b, true })
}

func opDiv(m code.Machine) error {
	return binNumeric("/", m,
		func(a, b float64) (float64, bool) {
			if b == 0 {
				return 0, false
			}
			return a / b, true
		},
		func(a, b int64) (int64, bool) {
			if b == 0 {
				return 0, false
			}
			return a / b, true
		})
}

func opMod(m code.Machine) error {
	return binNumeric("mod", m,
		func(a, b float64) (float64, bool) {
			if b == 0 {
				return 0, false
			}
			n := int64(a) % int64(b)
			return float64(n), true
		},
		func(a, b int64) (int64, bool) {
			if b == 0 {
				return 0, false
			}
			return a % b, true
		})
}

func cmp(op string, m code.Machine, fi func(a, b int64) bool, ff func(a, b float64) bool) error {
	bs, err := m.Data().Pop()
	if err != nil {
		return err
	}
	as, err := m.Data().Pop()
	if err != nil {
		return err
	}
	a, b := as.V, bs.V
	if !a.IsNumeric() || !b.IsNumeric() {
		return terr.VMError{Kind: terr.TypeMismatch, Op: op, Left: a.Kind().String(), Right: b.Kind().String()}
	}
	var result bool
	if a.Kind() == value.Int && b.Kind() == value.Int {
		result = fi(a.Int(), b.Int())
	} else {
		result = ff(a.AsFloat(), b.AsFloat())
	}
	return m.Data().Push(value.New(value.NewBool(result)))
}

func opLt(m code.Machine) error {
	return cmp("<", m, func(a, b int64) bool { return a < b }, func(a, b float64) bool { return a < b })
}

func opGt(m code.Machine) error {
	return cmp(">", m, func(a, b int64) bool { return a > b }, func(a, b float64) bool { return a > b })
}

func opLe(m code.Machine) error {
	return cmp("<=", m, func(a, b int64) bool { return a <= b }, func(a, b float64) bool { return a <= b })
}

func opGe(m code.Machine) error {
	return cmp(">=", m, func(a, b int64) bool { return a >= b }, func(a, b float64) bool { return a >= b })
}

func opEq(m code.Machine) error {
	bs, err := m.Data().Pop()
	if err != nil {
		return err
	}
	as, err := m.Data().Pop()
	if err != nil {
		return err
	}
	return m.Data().Push(value.New(value.NewBool(value.Equal(as.V, bs.V))))
}

func opNot(m code.Machine) error {
	s, err := m.Data().Pop()
	if err != nil {
		return err
	}
	if s.V.Kind() != value.Bool {
		return terr.VMError{Kind: terr.TypeMismatch, Op: "!", Left: s.V.Kind().String()}
	}
	return m.Data().Push(value.New(value.NewBool(!s.V.Bool())))
}
