package vm

import (
	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

// loopSignal distinguishes break from continue when unwinding out of a
// running lambda body back to its enclosing native `while`.
type loopSignal int

const (
	sigBreak loopSignal = iota
	sigContinue
)

// loopControlErr is how a Break/Continue opcode reaches the native `while`
// that's driving the currently-executing lambda body: step() returns it
// like any other error, runLambda recognizes it and unwinds the internal
// call stack back to the depth it started from (rather than letting it escape
// as a real VM fault), then hands it back to the native caller to act on.
type loopControlErr struct{ sig loopSignal }

func (e loopControlErr) Error() string {
	if e.sig == sigBreak {
		return "break outside a loop"
	}
	return "continue outside a loop"
}

func (m *VM) unwindLoop(op code.Opcode) error {
	if op == code.Break {
		return loopControlErr{sigBreak}
	}
	return loopControlErr{sigContinue}
}

// runLambda executes the lambda body starting at addr to completion: it
// pushes the current ip as a return address (as Apply does) onto the
// internal call stack — never the user-visible Return stack — so that a
// `>r`-stashed value surrounding this call stays exactly where its owner
// left it, invisible to the lambda body's own `r@`/`r>`. It dispatches
// until that frame's own Return instruction pops it back off, and
// translates a loopControlErr into a plain return to the caller (who is
// expected to be a native loop construct) rather than letting it surface
// as a VM fault.
func (m *VM) runLambda(addr value.Addr) error {
	depth := m.calls.Len()
	savedIP := m.ip
	if err := m.calls.Push(m.ip); err != nil {
		return err
	}
	m.ip = addr

	for {
		done, err := m.step()
		if err != nil {
			if lc, ok := err.(loopControlErr); ok {
				m.calls.Truncate(depth)
				m.ip = savedIP
				return lc
			}
			return err
		}
		if done {
			return nil
		}
		if m.calls.Len() <= depth {
			return nil
		}
	}
}

// RunLambda executes the lambda at addr to completion, for native words
// (like builtin's vector `map`) that need to invoke a lambda argument
// synchronously rather than just branch to one. It is exported because such
// natives only ever see the code.Machine interface and type-assert for this
// extra capability.
func (m *VM) RunLambda(addr value.Addr) error { return m.runLambda(addr) }

// popLambda pops and type-checks a lambda off the data stack.
func (m *VM) popLambda(op string) (value.Addr, error) {
	s, err := m.data.Pop()
	if err != nil {
		return 0, err
	}
	if s.V.Kind() != value.Lambda {
		return 0, terr.VMError{Kind: terr.TypeMismatch, Op: op, Left: s.V.Kind().String()}
	}
	return s.V.LambdaInfo().CodeAddr, nil
}

func (m *VM) popBool(op string) (bool, error) {
	s, err := m.data.Pop()
	if err != nil {
		return false, err
	}
	if s.V.Kind() != value.Bool {
		return false, terr.VMError{Kind: terr.TypeMismatch, Op: op, Left: s.V.Kind().String()}
	}
	return s.V.Bool(), nil
}

// nativeIf implements `cond then-lambda else-lambda if`.
func (m *VM) nativeIf() error {
	elseAddr, err := m.popLambda("if")
	if err != nil {
		return err
	}
	thenAddr, err := m.popLambda("if")
	if err != nil {
		return err
	}
	cond, err := m.popBool("if")
	if err != nil {
		return err
	}
	if cond {
		return m.runLambda(thenAddr)
	}
	return m.runLambda(elseAddr)
}

// nativeWhen implements `cond then-lambda when` (no else branch).
func (m *VM) nativeWhen() error {
	thenAddr, err := m.popLambda("when")
	if err != nil {
		return err
	}
	cond, err := m.popBool("when")
	if err != nil {
		return err
	}
	if cond {
		return m.runLambda(thenAddr)
	}
	return nil
}

// nativeWhile implements `cond-lambda body-lambda while`: repeatedly runs
// cond-lambda, expects a bool on top, and if true runs body-lambda before
// testing again; `break` inside body-lambda ends the loop, `continue`
// skips straight back to re-testing the condition.
func (m *VM) nativeWhile() error {
	bodyAddr, err := m.popLambda("while")
	if err != nil {
		return err
	}
	condAddr, err := m.popLambda("while")
	if err != nil {
		return err
	}
	for {
		if err := m.runLambda(condAddr); err != nil {
			return err
		}
		cont, err := m.popBool("while")
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
		err = m.runLambda(bodyAddr)
		if err == nil {
			continue
		}
		lc, ok := err.(loopControlErr)
		if !ok {
			return err
		}
		if lc.sig == sigBreak {
			return nil
		}
		// sigContinue: fall through to re-testing the condition
	}
}

// RegisterControlWords installs if/when/while/break/continue into ops,
// returning each word's assigned index for the name map to bind.
func RegisterControlWords(ops *code.OpTable) map[string]int {
	idx := map[string]int{}
	idx["if"] = ops.AddNative("if", func(m code.Machine) error { return m.(*VM).nativeIf() })
	idx["when"] = ops.AddNative("when", func(m code.Machine) error { return m.(*VM).nativeWhen() })
	idx["while"] = ops.AddNative("while", func(m code.Machine) error { return m.(*VM).nativeWhile() })
	idx["break"] = ops.AddNative("break", func(m code.Machine) error { return loopControlErr{sigBreak} })
	idx["continue"] = ops.AddNative("continue", func(m code.Machine) error { return loopControlErr{sigContinue} })
	return idx
}
