package builtin

import (
	"io"

	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/value"
)

// Registrar owns the native words that need more than the code.Machine they
// run against — currently just the default stdout Writer print/println/`.`
// write to. internal/env constructs one per process and calls Register to
// install every builtin.
type Registrar struct {
	stdout *value.Shared
}

// NewRegistrar wraps w as the default stdout Writer, per the CLI's
// --init-script/normal-run wiring (internal/env).
func NewRegistrar(w io.Writer) *Registrar {
	return &Registrar{stdout: value.New(value.NewWriter("<stdout>", w))}
}

// Stdout returns the shared stdout cell, the same one the `stdout` word
// pushes.
func (b *Registrar) Stdout() *value.Shared { return b.stdout }

// opStdout pushes a reference to the default stdout Writer, implementing
// the zero-argument `stdout` word std/io exports so scripts can route
// write-to/writeln-to somewhere other than print/println's implicit
// default: ( -- writer ).
func (b *Registrar) opStdout(m code.Machine) error {
	return m.Data().Push(b.stdout.Dup())
}

// Register installs every native word this package provides into ops,
// wiring scan.Host-dependent macros through scan, and returns a name->index
// map from which internal/env binds the kernel words into the root NameMap
// and seeds each std module with its domain words.
func (b *Registrar) Register(ops *code.OpTable, scan *ScannerRef) map[string]int {
	idx := map[string]int{}

	add := func(name string, fn code.NativeFn) { idx[name] = ops.AddNative(name, fn) }
	addImmediate := func(name string, fn code.NativeFn) { idx[name] = ops.AddImmediateNative(name, fn) }

	// arithmetic / comparison
	add("+", opAdd)
	add("-", opSub)
	add("*", opMul)
	add("/", opDiv)
	add("mod", opMod)
	add("<", opLt)
	add(">", opGt)
	add("<=", opLe)
	add(">=", opGe)
	add("=", opEq)
	add("!", opNot)

	// strings
	add("concat", opStrConcat)
	add("string-length", opStrLen)
	add("string-split", opStrSplit)
	add("string-upcase", opStrUpper)
	add("string-downcase", opStrLower)
	add(">string", opToString)
	add("print", b.opPrint)
	add("println", b.opPrintln)
	add(".", b.opDot)
	add("write-to", opWriteTo)
	add("writeln-to", opWritelnTo)
	add("stdout", b.opStdout)

	// vectors ("push!" is registered once below, shared with the scanner's
	// pending-queue use per scanhooks.go's opPushBang)
	add("pop!", opVecPop)
	add("nth", opVecNth)
	add("set-nth!", opVecSetNth)
	add("length", opLength)
	add("map", opVecMap)

	// hashmaps
	add("set!", opHashmapSet)
	add("get", opHashmapGet)
	add("delete!", opHashmapDelete)
	add("has-key?", opHashmapHasKey)

	// I/O
	add("open-read", opOpenRead)
	add("open-write", opOpenWrite)
	add("open-append", opOpenAppend)
	add("read-char", opReadChar)
	add("flush", opFlush)
	add("close", opClose)

	// filesystem
	add("file-exists?", opFileExists)
	add("delete-file!", opDeleteFile)

	add("push!", scan.opPushBang)

	// canonical literal macros
	addImmediate("{", scan.opVecLiteral)
	addImmediate("H{", scan.opHashmapLiteral)

	for name, i := range RegisterScanHooks(ops, scan) {
		idx[name] = i
	}
	return idx
}
