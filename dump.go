package main

import (
	"fmt"
	"io"

	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/env"
	"github.com/tardi-lang/tardi/internal/value"
)

// dumper prints a human-readable snapshot of a run's final state, for
// --dump: the data and return stacks, then a disassembly of the shared
// instruction stream, over Tardi's stream-of-opcodes-plus-operands and
// op-table of native-or-user slots.
type dumper struct {
	e   *env.Env
	out io.Writer
}

func (d dumper) dump() {
	fmt.Fprintln(d.out, "# tardi dump")
	d.dumpStack("data", d.e.VM.Data())
	d.dumpReturn()
	d.dumpStream()
}

// stacker is the subset of code.DataStack that dumpStack needs; satisfied
// by *stack.Data via code.DataStack.
type stacker interface {
	Each(f func(v *value.Shared))
}

func (d dumper) dumpStack(label string, s stacker) {
	fmt.Fprintf(d.out, "  %s:", label)
	s.Each(func(v *value.Shared) {
		fmt.Fprint(d.out, " ", v.V.Render(value.Debug))
	})
	fmt.Fprintln(d.out)
}

// dumpReturn prints the depth of the user return stack (the values stashed
// by >r) only, not its entries. Call-frame addresses live on the VM's
// separate internal call stack and are not shown.
func (d dumper) dumpReturn() {
	fmt.Fprintf(d.out, "  return: depth=%d\n", d.e.VM.Return().Len())
}

// dumpStream disassembles every cell in the shared instruction stream,
// one opcode (plus its inline operands) per line, walking Tardi's
// Stream/Opcode model address by address.
func (d dumper) dumpStream() {
	fmt.Fprintln(d.out, "  code:")
	stream := d.e.Stream
	for ip := value.Addr(0); ip < stream.Len(); {
		addr := ip
		op := code.Opcode(stream.Load(ip))
		ip++

		fmt.Fprintf(d.out, "    @%d %v", addr, op)
		for n := op.Arity(); n > 0; n-- {
			fmt.Fprintf(d.out, " %d", stream.Load(ip))
			ip++
		}
		fmt.Fprintln(d.out)
	}
}
