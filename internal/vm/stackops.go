package vm

import (
	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/value"
)

// RegisterStackWords installs the native stack-shuffle primitives
// classified as VM-level rather than bootstrap: dup, swap, rot, drop,
// clear, stack-size, >r, r>, r@. Everything else (over, nip, pick, tuck,
// 2dup, ...) is built from these in std/bootstrap, out of these natives
// instead of raw memory cells.
func RegisterStackWords(ops *code.OpTable) map[string]int {
	idx := map[string]int{}
	idx["dup"] = ops.AddNative("dup", opDup)
	idx["swap"] = ops.AddNative("swap", opSwap)
	idx["rot"] = ops.AddNative("rot", opRot)
	idx["drop"] = ops.AddNative("drop", opDrop)
	idx["clear"] = ops.AddNative("clear", opClear)
	idx["stack-size"] = ops.AddNative("stack-size", opStackSize)
	idx[">r"] = ops.AddNative(">r", opToR)
	idx["r>"] = ops.AddNative("r>", opFromR)
	idx["r@"] = ops.AddNative("r@", opRAt)
	return idx
}

func opDup(m code.Machine) error {
	v, err := m.Data().Peek(0)
	if err != nil {
		return err
	}
	return m.Data().Push(v.Dup())
}

func opSwap(m code.Machine) error {
	a, err := m.Data().Pop()
	if err != nil {
		return err
	}
	b, err := m.Data().Pop()
	if err != nil {
		return err
	}
	if err := m.Data().Push(a); err != nil {
		return err
	}
	return m.Data().Push(b)
}

func opRot(m code.Machine) error {
	c, err := m.Data().Pop()
	if err != nil {
		return err
	}
	b, err := m.Data().Pop()
	if err != nil {
		return err
	}
	a, err := m.Data().Pop()
	if err != nil {
		return err
	}
	if err := m.Data().Push(b); err != nil {
		return err
	}
	if err := m.Data().Push(c); err != nil {
		return err
	}
	return m.Data().Push(a)
}

func opDrop(m code.Machine) error {
	_, err := m.Data().Pop()
	return err
}

func opClear(m code.Machine) error {
	m.Data().Clear()
	return nil
}

func opStackSize(m code.Machine) error {
	return m.Data().Push(value.New(value.NewInt(int64(m.Data().Len()))))
}

// opToR, opFromR and opRAt move values to/from the return stack: any value
// type may be stashed. The return stack is separate from the VM's internal
// call-frame bookkeeping (see internal/stack.Calls), so a lambda invoked
// between a `>r` and its matching `r>`/`r@` never observes or disturbs the
// stashed value.
func opToR(m code.Machine) error {
	v, err := m.Data().Pop()
	if err != nil {
		return err
	}
	return m.Return().Push(v)
}

func opFromR(m code.Machine) error {
	v, err := m.Return().Pop()
	if err != nil {
		return err
	}
	return m.Data().Push(v)
}

func opRAt(m code.Machine) error {
	v, err := m.Return().Peek()
	if err != nil {
		return err
	}
	return m.Data().Push(v.Dup())
}
