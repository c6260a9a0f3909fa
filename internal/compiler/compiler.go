// Package compiler turns a token stream from internal/scanner into
// instructions appended to a single shared internal/code.Stream, resolving
// words against a internal/code.NameMap/OpTable pair.
//
// Frames are not buffered separately: each nested definition (`: ... ;`) or
// lambda (`[ ... ]`) is compiled directly into the same stream its enclosing
// code lives in, using a "reserve a jump around the body, compile the body
// in place, patch the jump once its length is known" backpatch-via-`here`
// recipe, generalized from conditional branches to whole function/lambda
// bodies.
package compiler

import (
	"io"

	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

// frame tracks one open, unfinished definition or lambda body.
type frame struct {
	isFunction  bool
	isMacro     bool
	opIndex     int        // valid when isFunction: the predeclared op-table slot
	jumpOperand value.Addr // address of the Jump's operand cell, patched at finalize
	entryAddr   value.Addr // address the body starts at
}

// MacroRunner executes an immediate word's body at compile time, sharing
// the compiler's data stack so the macro can call back into the scanner via
// native scan-value/scan-word/scan-object-list words (or, for a native
// immediate such as `{`/`H{`, run the native function directly against the
// live machine). It is handed the full Slot rather than just an address
// because native and user-defined immediates are invoked differently; only
// internal/env, which owns both the compiler and a VM instance, knows how.
// Package compiler does not import package vm to avoid a cycle (see
// internal/code.Machine for the same reasoning).
type MacroRunner func(slot code.Slot) error

// Tokens is the minimal surface the compiler needs from a scanner, named
// here so package compiler doesn't have to import package scanner for
// anything but this one call shape.
type Tokens interface {
	ScanValue() (*value.Shared, string, error)
	Loc() string
}

// Compiler compiles one module's source into the shared stream.
type Compiler struct {
	Stream    *code.Stream
	Constants *code.Constants
	Ops       *code.OpTable
	Names     *code.NameMap
	Tokens    Tokens

	RunMacro MacroRunner

	// UsesHook and ExportsHook back the `uses:`/`exports:` directives; both
	// are wired by internal/env, which owns cross-module name resolution.
	UsesHook    DirectiveHook
	ExportsHook func(names []string) error

	frames []*frame
}

// New returns a Compiler writing into the given shared stream/constants/
// op-table, resolving words against names, reading tokens from toks.
func New(stream *code.Stream, constants *code.Constants, ops *code.OpTable, names *code.NameMap, toks Tokens) *Compiler {
	return &Compiler{Stream: stream, Constants: constants, Ops: ops, Names: names, Tokens: toks}
}

// CompileModule compiles every top-level form in the token source until
// EOF, appending instructions to the stream; it does not wrap the result in
// a function or lambda. Returns the address execution should start at.
func (c *Compiler) CompileModule() (value.Addr, error) {
	entry := c.Stream.Len()
	for {
		err := c.compileOne()
		if err == io.EOF {
			return entry, nil
		}
		if err != nil {
			return entry, err
		}
	}
}

// compileOne compiles a single token, implementing a four-way dispatch:
// literal / known word / macro / unresolved.
func (c *Compiler) compileOne() error {
	v, word, err := c.Tokens.ScanValue()
	if err != nil {
		return err
	}
	if v != nil {
		k := c.Constants.Intern(v)
		c.Stream.Emit(int(code.LitConst))
		c.Stream.Emit(k)
		return nil
	}

	switch word {
	case ":":
		return c.beginFunction(false)
	case "MACRO:":
		return c.beginFunction(true)
	case ";":
		return c.endFrame()
	case "[":
		return c.beginLambda()
	case "]":
		return c.endFrame()
	case "uses:":
		return c.runDirective(c.UsesHook)
	case "exports:":
		return c.runExports()
	case "call":
		c.Stream.Emit(int(code.Apply))
		return nil
	case "(":
		for {
			_, w, err := c.Tokens.ScanValue()
			if err != nil {
				return terr.CompileError{Kind: terr.UnexpectedEnd, Loc: c.Tokens.Loc()}
			}
			if w == ")" {
				return nil
			}
		}
	}

	idx, ok := c.Names.Lookup(word)
	if !ok {
		return terr.CompileError{Kind: terr.UnknownWord, Word: word, Loc: c.Tokens.Loc()}
	}
	slot, ok := c.Ops.Get(idx)
	if !ok {
		return terr.CompileError{Kind: terr.UnknownWord, Word: word, Loc: c.Tokens.Loc()}
	}
	if slot.Immediate {
		return c.runImmediate(slot)
	}
	c.Stream.Emit(int(code.Call))
	c.Stream.Emit(int(idx))
	return nil
}

// runImmediate executes an immediate word (a native one such as `{`, or a
// MACRO:-defined one) at compile time through RunMacro. A nested `:`/`MACRO:` opened from inside it is
// rejected: the frame stack's depth at entry is compared to its depth on
// return.
func (c *Compiler) runImmediate(slot code.Slot) error {
	if c.RunMacro == nil {
		return terr.CompileError{Kind: terr.MacroFailed, Word: slot.Name, Loc: c.Tokens.Loc()}
	}
	depth := len(c.frames)
	err := c.RunMacro(slot)
	if len(c.frames) != depth {
		c.frames = c.frames[:depth]
		return terr.CompileError{Kind: terr.NestedDefine, Word: slot.Name, Loc: c.Tokens.Loc()}
	}
	if err != nil {
		return terr.CompileError{Kind: terr.MacroFailed, Word: slot.Name, Loc: c.Tokens.Loc(), Cause: err}
	}
	return nil
}

// UsesHook, when set, is invoked by the `uses:` directive with the module
// name that follows it; wired by internal/env to merge the named module's
// exported name map into this compiler's.
type DirectiveHook func(name string) error

func (c *Compiler) runDirective(hook DirectiveHook) error {
	name, err := c.scanName()
	if err != nil {
		return err
	}
	if hook == nil {
		return nil
	}
	return hook(name)
}

func (c *Compiler) runExports() error {
	var names []string
	for {
		_, word, err := c.Tokens.ScanValue()
		if err != nil {
			return terr.CompileError{Kind: terr.UnexpectedEnd, Loc: c.Tokens.Loc()}
		}
		if word == ";" {
			break
		}
		names = append(names, word)
	}
	if c.ExportsHook == nil {
		return nil
	}
	return c.ExportsHook(names)
}

// beginFunction implements `: name`: predeclare an op-table slot bound to
// name (so the body can recurse), reserve a jump around the body in the
// enclosing stream, and push a function frame.
func (c *Compiler) beginFunction(isMacro bool) error {
	name, err := c.scanName()
	if err != nil {
		return err
	}
	idx := c.Ops.Predeclare(name)
	c.Names.Bind(name, idx)

	jumpOperand := c.reserveJumpAround()
	c.frames = append(c.frames, &frame{
		isFunction:  true,
		isMacro:     isMacro,
		opIndex:     idx,
		jumpOperand: jumpOperand,
		entryAddr:   c.Stream.Len(),
	})
	return nil
}

// beginLambda implements `[`: reserve a jump around the body and push an
// anonymous frame; finalize allocates the Lambda constant.
func (c *Compiler) beginLambda() error {
	jumpOperand := c.reserveJumpAround()
	c.frames = append(c.frames, &frame{
		jumpOperand: jumpOperand,
		entryAddr:   c.Stream.Len(),
	})
	return nil
}

// reserveJumpAround emits `Jump _` with a placeholder operand, returning the
// operand's address so it can be patched once the body's length is known.
func (c *Compiler) reserveJumpAround() value.Addr {
	c.Stream.Emit(int(code.Jump))
	return c.Stream.Reserve()
}

// endFrame implements `;` and `]`: append Return, patch the enclosing jump
// to land right after the body, and either install the function's entry
// address in the op-table or intern a Lambda constant and push it in the
// enclosing code.
func (c *Compiler) endFrame() error {
	n := len(c.frames)
	if n == 0 {
		return terr.CompileError{Kind: terr.UnexpectedEnd, Loc: c.Tokens.Loc()}
	}
	f := c.frames[n-1]
	c.frames = c.frames[:n-1]

	c.Stream.Emit(int(code.Return))
	c.Stream.Patch(f.jumpOperand, int(c.Stream.Len()))

	if f.isFunction {
		c.Ops.Define(f.opIndex, f.entryAddr)
		if f.isMacro {
			c.Ops.MarkImmediate(f.opIndex)
		}
		return nil
	}
	lam := value.NewLambda(&value.Lambda{CodeAddr: f.entryAddr})
	k := c.Constants.Intern(value.New(lam))
	c.Stream.Emit(int(code.LitConst))
	c.Stream.Emit(k)
	return nil
}

func (c *Compiler) scanName() (string, error) {
	_, word, err := c.Tokens.ScanValue()
	if err != nil {
		return "", err
	}
	if word == "" {
		return "", terr.CompileError{Kind: terr.UnexpectedEnd, Loc: c.Tokens.Loc()}
	}
	return word, nil
}

// InFrame reports whether a definition or lambda is currently open, used by
// immediate words to reject nested `:`/`MACRO:` during macro execution.
func (c *Compiler) InFrame() bool { return len(c.frames) > 0 }
