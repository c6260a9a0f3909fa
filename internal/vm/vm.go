// Package vm implements Tardi's dispatch loop: fetch an opcode from the
// shared instruction stream, act on it, repeat. The loop structure —
// fetch/step/ctx-check/optional trace — dispatches through an op-table of
// native-or-user operations (internal/code.OpTable) rather than a single
// fixed dictionary.
package vm

import (
	"context"

	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/stack"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

// LogFunc receives one trace line per dispatch step, wired to --trace.
type LogFunc func(format string, args ...interface{})

// VM is one instruction-stream execution context: a single ip, a data
// stack, a user-visible return stack, an internal call-frame stack, and
// pointers to the process-wide op-table, constant pool and instruction
// stream built up by the compiler/loader.
type VM struct {
	ip    value.Addr
	data  *stack.Data
	ret   *stack.Return
	calls *stack.Calls

	stream    *code.Stream
	constants *code.Constants
	ops       *code.OpTable

	logf LogFunc

	haltErr error
	halted  bool
}

// New returns a VM sharing the given code artifacts; data/return/call
// stacks are fresh and private to this VM.
func New(stream *code.Stream, constants *code.Constants, ops *code.OpTable) *VM {
	return &VM{
		data:      stack.NewData(),
		ret:       stack.NewReturn(),
		calls:     stack.NewCalls(),
		stream:    stream,
		constants: constants,
		ops:       ops,
	}
}

// SetLogf installs a step-trace hook (nil disables tracing).
func (m *VM) SetLogf(f LogFunc) { m.logf = f }

// Data, Return, Stream, Constants and IP/SetIP/Halt implement
// internal/code.Machine, so native ops (which only ever see the Machine
// interface) can act on this VM without package code importing package vm.
func (m *VM) Data() code.DataStack       { return m.data }
func (m *VM) Return() code.ReturnStack   { return m.ret }
func (m *VM) IP() value.Addr             { return m.ip }
func (m *VM) SetIP(a value.Addr)         { m.ip = a }
func (m *VM) Stream() *code.Stream       { return m.stream }
func (m *VM) Constants() *code.Constants { return m.constants }

func (m *VM) Halt(err error) {
	m.halted = true
	m.haltErr = err
}

// Run executes starting at entry until Halt, a Return with an empty call
// stack, ip running off the end of the stream, or ctx is cancelled. It is
// called from a panic-isolated boundary (internal/panicerr.Recover) by its
// caller.
func (m *VM) Run(ctx context.Context, entry value.Addr) error {
	m.ip = entry
	m.halted = false
	m.haltErr = nil

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := m.step()
		if err != nil {
			if lc, ok := err.(loopControlErr); ok {
				// break/continue with no enclosing while to catch it is a
				// plain VM fault, not silently ignored.
				op := "break"
				if lc.sig == sigContinue {
					op = "continue"
				}
				return terr.VMError{Kind: terr.BadOpcode, Op: op}
			}
			return err
		}
		if done {
			return m.haltErr
		}
	}
}

// step executes exactly one instruction, returning done=true once the
// program should stop (Halt, Return off an empty call stack, or ip
// running past the end of the stream).
func (m *VM) step() (bool, error) {
	if m.halted {
		return true, nil
	}
	if m.ip >= m.stream.Len() {
		return true, nil
	}

	op := code.Opcode(m.stream.Fetch(&m.ip))
	if m.logf != nil {
		m.logf("ip=%d op=%v data=%d ret=%d calls=%d", m.ip, op, m.data.Len(), m.ret.Len(), m.calls.Len())
	}

	switch op {
	case code.LitConst:
		k := m.stream.Fetch(&m.ip)
		c := m.constants.Get(k)
		if err := m.data.Push(c.Dup()); err != nil {
			return false, err
		}

	case code.Call:
		idx := m.stream.Fetch(&m.ip)
		if err := m.call(idx); err != nil {
			return false, err
		}

	case code.CallStack:
		a, err := m.data.Pop()
		if err != nil {
			return false, err
		}
		if a.V.Kind() != value.Address {
			return false, terr.VMError{Kind: terr.TypeMismatch, Op: "call-stack", Left: a.V.Kind().String()}
		}
		if err := m.call(int(a.V.Addr())); err != nil {
			return false, err
		}

	case code.Return:
		if m.calls.Len() == 0 {
			return true, nil
		}
		a, err := m.calls.Pop()
		if err != nil {
			return false, err
		}
		m.ip = a

	case code.Jump:
		target := m.stream.Fetch(&m.ip)
		m.ip = value.Addr(target)

	case code.JumpStack:
		a, err := m.data.Pop()
		if err != nil {
			return false, err
		}
		if a.V.Kind() != value.Address {
			return false, terr.VMError{Kind: terr.TypeMismatch, Op: "jump-stack", Left: a.V.Kind().String()}
		}
		m.ip = a.V.Addr()

	case code.Ip:
		if err := m.data.Push(value.New(value.NewAddr(m.ip))); err != nil {
			return false, err
		}

	case code.Apply:
		a, err := m.data.Pop()
		if err != nil {
			return false, err
		}
		if a.V.Kind() != value.Lambda {
			return false, terr.VMError{Kind: terr.TypeMismatch, Op: "apply", Left: a.V.Kind().String()}
		}
		if err := m.calls.Push(m.ip); err != nil {
			return false, err
		}
		m.ip = a.V.LambdaInfo().CodeAddr

	case code.Break, code.Continue:
		return false, m.unwindLoop(op)

	case code.Halt:
		return true, nil

	default:
		return false, terr.VMError{Kind: terr.BadOpcode, Op: op.String()}
	}
	return false, nil
}

// call invokes op-table slot idx: a native Go function runs directly; a
// user op pushes the current ip onto the internal call stack and jumps to
// its entry address.
func (m *VM) call(idx int) error {
	slot, ok := m.ops.Get(idx)
	if !ok {
		return terr.VMError{Kind: terr.BadOpcode, Op: "call", Index: idx}
	}
	if !slot.IsUser {
		if slot.Native == nil {
			return terr.VMError{Kind: terr.BadOpcode, Op: slot.Name}
		}
		return slot.Native(m)
	}
	if err := m.calls.Push(m.ip); err != nil {
		return err
	}
	m.ip = slot.Addr
	return nil
}
