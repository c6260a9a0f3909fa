package builtin

import (
	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

// ScannerHost is the surface a running macro needs from the scanner that is
// currently feeding the compiler, so that scan-value/scan-word/
// scan-object-list/push! can call back into the token stream mid-compile —
// exactly the "macro invokes compiled code which reads more tokens and
// emits values back" loop described for the scanner/macro pipeline. It is
// internal/compiler.Tokens (ScanValue, Loc) plus ScanObjectList and the
// pending-value queue, named separately here so this package doesn't need
// to import internal/compiler or internal/scanner.
type ScannerHost interface {
	ScanValue() (*value.Shared, string, error)
	ScanObjectList(endWord string, yield func(v *value.Shared, word string) error) error
	PushPending(v *value.Shared)
	Loc() string
}

// ScannerRef is a mutable slot naming the ScannerHost currently driving
// compilation; internal/env points it at each module's scanner in turn as
// it compiles module bodies, and the scan-hook natives below always read
// through it rather than closing over one scanner permanently.
//
// Active is set by internal/env for the duration of a RunMacro call — it
// is how the single `push!` native (registered once, see opPushBang) tells
// apart its two uses: inside a running macro it feeds the scanner's
// pending-values queue, otherwise it's the ordinary vector
// `item vector push!` append.
type ScannerRef struct {
	Host   ScannerHost
	Active bool
}

func (r *ScannerRef) host(op string) (ScannerHost, error) {
	if r == nil || r.Host == nil {
		return nil, terr.VMError{Kind: terr.BadOpcode, Op: op}
	}
	return r.Host, nil
}

// RegisterScanHooks installs scan-value/scan-word/scan-object-list, the
// natives that let a MACRO: body drive the scanner, returning each word's
// assigned index for the name map to bind. `push!` itself is registered by
// Registrar.Register (register.go), since it also needs vecPush.
func RegisterScanHooks(ops *code.OpTable, ref *ScannerRef) map[string]int {
	idx := map[string]int{}
	idx["scan-value"] = ops.AddNative("scan-value", ref.opScanValue)
	idx["scan-word"] = ops.AddNative("scan-word", ref.opScanWord)
	idx["scan-object-list"] = ops.AddNative("scan-object-list", ref.opScanObjectList)
	return idx
}

// opScanValue scans the next token as a value literal, pushing the scanned
// SharedValue onto the data stack (e.g. the `7` after `SQ` in
// `MACRO: SQ scan-value dup * push! ; SQ 7`).
func (r *ScannerRef) opScanValue(m code.Machine) error {
	host, err := r.host("scan-value")
	if err != nil {
		return err
	}
	v, word, serr := host.ScanValue()
	if serr != nil {
		return serr
	}
	if v == nil {
		v = value.New(value.NewString(word))
	}
	return m.Data().Push(v)
}

// opScanWord scans the next token as a bare word (not interpreting it as a
// literal even if it looks like one), pushing it as a String.
func (r *ScannerRef) opScanWord(m code.Machine) error {
	host, err := r.host("scan-word")
	if err != nil {
		return err
	}
	_, word, serr := host.ScanValue()
	if serr != nil {
		return serr
	}
	return m.Data().Push(value.New(value.NewString(word)))
}

// opScanObjectList implements `end-word-string [ lambda ] scan-object-list`:
// repeatedly scans tokens until end-word, pushing each scanned value (bare
// words become Strings) and invoking lambda once per token.
func (r *ScannerRef) opScanObjectList(m code.Machine) error {
	lamS, err := m.Data().Pop()
	if err != nil {
		return err
	}
	if lamS.V.Kind() != value.Lambda {
		return terr.VMError{Kind: terr.TypeMismatch, Op: "scan-object-list", Left: lamS.V.Kind().String()}
	}
	end, err := popString(m, "scan-object-list")
	if err != nil {
		return err
	}
	host, err := r.host("scan-object-list")
	if err != nil {
		return err
	}
	runner, ok := m.(lambdaRunner)
	if !ok {
		return terr.VMError{Kind: terr.BadOpcode, Op: "scan-object-list"}
	}
	return host.ScanObjectList(end, func(v *value.Shared, word string) error {
		if v == nil {
			v = value.New(value.NewString(word))
		}
		if err := m.Data().Push(v); err != nil {
			return err
		}
		return runner.RunLambda(lamS.V.LambdaInfo().CodeAddr)
	})
}

// opPushBang is the single native bound to the name `push!`. While a macro
// is running (r.Active) it queues the popped value to be returned by the
// scanner's next ScanValue call, ahead of whatever source text follows —
// how a macro emits a computed result back into the token stream it is
// compiling into. Otherwise it's the ordinary vector append,
// `item vector push!`.
func (r *ScannerRef) opPushBang(m code.Machine) error {
	if r.Active {
		host, err := r.host("push!")
		if err != nil {
			return err
		}
		v, err := m.Data().Pop()
		if err != nil {
			return err
		}
		host.PushPending(v)
		return nil
	}
	return vecPush(m)
}
