// Package env wires together the shared op-table, constant pool, and
// instruction stream with the compiler and VM that both operate on them,
// and owns module resolution: std/kernel is seeded implicitly into every
// module, and every other standard module is reached only through an
// explicit `uses:`.
package env

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tardi-lang/tardi/internal/builtin"
	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/compiler"
	"github.com/tardi-lang/tardi/internal/runeio"
	"github.com/tardi-lang/tardi/internal/scanner"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
	"github.com/tardi-lang/tardi/internal/vm"
	"github.com/tardi-lang/tardi/std"
)

// kernelWords is std/kernel's implicit vocabulary: natives every module's
// name map starts with, with no uses: required. Everything
// else builtin.Registrar registers is a domain native, reachable only
// through the uses:-gated seed table below.
var kernelWords = []string{
	"+", "-", "*", "/", "mod", "<", ">", "<=", ">=", "=", "!", ".",
	"dup", "swap", "rot", "drop", "clear", "stack-size", ">r", "r>", "r@",
	"if", "when", "while", "break", "continue",
	"{", "H{",
}

// domainSeed maps a std/ module's canonical (non-underscore) name to the
// natives its compile-time name map must already have bound before its
// .tardi source compiles — these are never in kernelWords, so without this
// seed `uses: std/vectors` would have nothing to actually import.
var domainSeed = map[string][]string{
	"vectors":  {"push!", "pop!", "nth", "set-nth!", "length", "map"},
	"hashmaps": {"set!", "get", "delete!", "has-key?", "length"},
	"strings":  {"concat", "string-length", "string-split", "string-upcase", "string-downcase", ">string"},
	"io":       {"print", "println", ".", "write-to", "writeln-to", "open-read", "open-write", "open-append", "read-char", "flush", "close", "stdout"},
	"fs":       {"open-read", "open-write", "open-append", "file-exists?", "delete-file!", "writeln-to", "close"},
	"scanning": {"scan-value", "scan-word", "scan-object-list", "push!"},
}

// bootstrapFiles are compiled directly into root, in this fixed order,
// before anything else — no module boundary, so their definitions simply
// extend the implicit kernel vocabulary.
var bootstrapFiles = []string{
	"bootstrap/01-stack-shuffles.tardi",
}

// Env owns every shared artifact a running Tardi process needs: the
// process-wide op-table/constants/instruction stream, a VM to execute
// them, and the module loader built on top.
type Env struct {
	Ops       *code.OpTable
	Constants *code.Constants
	Stream    *code.Stream
	VM        *vm.VM
	Registrar *builtin.Registrar

	root    *code.NameMap
	natives map[string]int
	scanRef *builtin.ScannerRef

	// lastExports carries the most recently compiled module's explicit
	// exports: list (if any) out of compileModule for Load to pick up
	// immediately afterward. compileModule calls nest (a uses: directive
	// loads and compiles the imported module mid-compile), so the uses:
	// hook saves this field before that nested Load and restores it after.
	lastExports    []string
	lastExportsSet bool

	cache      map[string]*code.NameMap
	loading    []string
	dataDir    string
	searchPath []string
}

// New builds a fresh Env writing stdout/println/print/`.` output to w, and
// compiles the bootstrap sources into the implicit root vocabulary.
//
// dataDir, when non-empty (TARDI_DATA_DIR), is checked ahead of the
// embedded std/ tree for std/ module names, letting a deployment override
// the standard library without rebuilding the binary. searchPath lists
// the directories searched, in order, for non-std module names; it is the
// only place such names are looked up, and main.go decides what it holds.
func New(w io.Writer, dataDir string, searchPath []string) (*Env, error) {
	ops := code.NewOpTable()
	constants := code.NewConstants()
	stream := code.NewStream()
	registrar := builtin.NewRegistrar(w)
	scanRef := &builtin.ScannerRef{}

	natives := map[string]int{}
	for name, i := range vm.RegisterStackWords(ops) {
		natives[name] = i
	}
	for name, i := range vm.RegisterControlWords(ops) {
		natives[name] = i
	}
	for name, i := range registrar.Register(ops, scanRef) {
		natives[name] = i
	}

	root := code.NewNameMap()
	for _, name := range kernelWords {
		idx, ok := natives[name]
		if !ok {
			return nil, fmt.Errorf("env: kernel word %q was never registered", name)
		}
		root.Bind(name, idx)
	}

	e := &Env{
		Ops:        ops,
		Constants:  constants,
		Stream:     stream,
		Registrar:  registrar,
		root:       root,
		natives:    natives,
		scanRef:    scanRef,
		cache:      map[string]*code.NameMap{},
		dataDir:    dataDir,
		searchPath: searchPath,
	}
	e.VM = vm.New(stream, constants, ops)

	for _, rel := range bootstrapFiles {
		if _, err := e.compileBootstrap(rel); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// CompileFile compiles the user's entry script, read from the OS
// filesystem, into the shared stream. Its name map starts from root (the
// implicit kernel vocabulary) exactly like any other module, and its own
// uses: directives resolve through Load like any other module's — the
// only thing that makes it "the entry module" is that the caller (main.go)
// runs the returned address instead of discarding it.
func (e *Env) CompileFile(path string) (value.Addr, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, terr.LoadError{Kind: terr.ModuleNotFound, Name: path}
	}
	defer f.Close()
	return e.CompileReader(path, f)
}

// CompileReader compiles source text (a script file, or one REPL line at a
// time) into the shared stream under the given name, used for diagnostics
// and as the uses:-cycle chain label.
func (e *Env) CompileReader(name string, src io.Reader) (value.Addr, error) {
	names := e.root.Clone()
	entry, err := e.compileModule(name, src, names, true)
	e.lastExports, e.lastExportsSet = nil, false // entry scripts don't export
	return entry, err
}

// compileBootstrap compiles an embedded std/ source file directly into
// root, with no module boundary: its definitions become part of the
// implicit kernel vocabulary every later module starts with.
func (e *Env) compileBootstrap(rel string) (value.Addr, error) {
	f, err := std.FS.Open(rel)
	if err != nil {
		return 0, terr.LoadError{Kind: terr.ModuleNotFound, Name: rel}
	}
	defer f.Close()
	entry, err := e.compileModule(rel, f, e.root, false)
	e.lastExports, e.lastExportsSet = nil, false // bootstrap has no exports: of its own
	return entry, err
}

// seedFor returns a fresh name map for compiling the std/ module base
// (vectors, hashmaps, ...): root's kernel vocabulary plus that module's
// domain natives, merged in (not Bind, so NameMap.Bound() stays limited to
// names the module source itself defines).
func (e *Env) seedFor(base string) (*code.NameMap, error) {
	names := e.root.Clone()
	extra, ok := domainSeed[base]
	if !ok {
		return names, nil
	}
	tmp := code.NewNameMap()
	for _, name := range extra {
		idx, ok := e.natives[name]
		if !ok {
			return nil, fmt.Errorf("env: domain native %q was never registered", name)
		}
		tmp.Bind(name, idx)
	}
	names.Merge(tmp)
	return names, nil
}

// Load resolves name to its exported name map, compiling it on first use
// and caching the result; re-loading an already-loaded module is a no-op.
// It is internal/env's compiler.DirectiveHook, wired per module by
// compileModule below.
func (e *Env) Load(name string) (*code.NameMap, error) {
	if exp, ok := e.cache[name]; ok {
		return exp, nil
	}
	for _, inFlight := range e.loading {
		if inFlight == name {
			return nil, terr.LoadError{Kind: terr.Cycle, Name: name, Chain: append(append([]string{}, e.loading...), name)}
		}
	}

	src, seedBase, err := e.resolve(name)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	names, err := e.seedFor(seedBase)
	if err != nil {
		return nil, err
	}

	e.loading = append(e.loading, name)
	_, err = e.compileModule(name, src, names, true)
	e.loading = e.loading[:len(e.loading)-1]
	explicit, hadExplicit := e.lastExports, e.lastExportsSet
	e.lastExports, e.lastExportsSet = nil, false
	if err != nil {
		return nil, err
	}

	var exports *code.NameMap
	if hadExplicit {
		exports, err = exportSubset(names, explicit)
		if err != nil {
			return nil, terr.LoadError{Kind: terr.ExportMismatch, Name: name}
		}
	} else {
		exports = defaultExports(names)
	}
	e.cache[name] = exports
	return exports, nil
}

// resolve maps a module name to its source (closed by the caller) and the
// domain-seed key its name map should start from. std/ names check
// e.dataDir (TARDI_DATA_DIR) first when set, then fall back to the
// embedded tree; anything else walks searchPath in order.
func (e *Env) resolve(name string) (io.ReadCloser, string, error) {
	if rest, ok := strings.CutPrefix(name, "std/"); ok {
		dir, file := stdModulePath(rest)
		if e.dataDir != "" {
			if f, err := os.Open(filepath.Join(e.dataDir, dir, file)); err == nil {
				return f, dir, nil
			}
		}
		f, err := std.FS.Open(path.Join(dir, file))
		if err != nil {
			return nil, "", terr.LoadError{Kind: terr.ModuleNotFound, Name: name}
		}
		return f, dir, nil
	}

	rel := name
	if !strings.HasSuffix(rel, ".tardi") {
		rel += ".tardi"
	}
	for _, dir := range e.searchPath {
		f, err := os.Open(filepath.Join(dir, rel))
		if err == nil {
			return f, "", nil
		}
	}
	return nil, "", terr.LoadError{Kind: terr.ModuleNotFound, Name: name}
}

// stdModulePath maps a std/ module's trailing segment to its embedded
// directory and file: "vectors" -> vectors/vectors.tardi, "_vectors" ->
// vectors/_vectors.tardi (private counterpart, same directory).
func stdModulePath(seg string) (dir, file string) {
	base := strings.TrimPrefix(seg, "_")
	return base, seg + ".tardi"
}

// compileModule compiles src as one module's body into the shared stream,
// using names as its starting (and, for locally-defined words, final) name
// map. withUsesHook is true for a real uses:-reachable module (so its own
// uses: can recurse through Load); false for the root-level bootstrap
// compile, which has no directives of its own. Any exports: directive
// encountered is recorded in e.lastExports for the caller (Load) to pick
// up immediately afterward.
func (e *Env) compileModule(locName string, src io.Reader, names *code.NameMap, withUsesHook bool) (value.Addr, error) {
	sc := scanner.New(locName, runeio.NewReader(src))
	c := compiler.New(e.Stream, e.Constants, e.Ops, names, sc)
	c.RunMacro = e.runMacro

	if withUsesHook {
		c.UsesHook = func(imported string) error {
			saved, savedSet := e.lastExports, e.lastExportsSet
			exp, err := e.Load(imported)
			e.lastExports, e.lastExportsSet = saved, savedSet
			if err != nil {
				return err
			}
			names.Merge(exp)
			return nil
		}
	}

	c.ExportsHook = func(list []string) error {
		e.lastExports, e.lastExportsSet = list, true
		return nil
	}

	prevHost := e.scanRef.Host
	e.scanRef.Host = sc
	entry, err := c.CompileModule()
	e.scanRef.Host = prevHost
	return entry, err
}

// runMacro is internal/compiler.MacroRunner: it runs a native immediate
// directly against the VM, or a user-defined one (MACRO:) to completion,
// toggling ScannerRef.Active around either so push!/scan-value resolve to
// their compile-time behavior for the duration (scanhooks.go, literals.go).
func (e *Env) runMacro(slot code.Slot) error {
	e.scanRef.Active = true
	defer func() { e.scanRef.Active = false }()

	if slot.Native != nil {
		return slot.Native(e.VM)
	}
	return e.VM.RunLambda(slot.Addr)
}

// defaultExports builds an export-only name map from everything names
// Bound locally: a module with no exports: directive exposes every word
// it defined, deduplicating a rebound name to its latest index.
func defaultExports(names *code.NameMap) *code.NameMap {
	seen := map[string]bool{}
	var ordered []string
	for _, n := range names.Bound() {
		if !seen[n] {
			seen[n] = true
			ordered = append(ordered, n)
		}
	}
	sort.Strings(ordered) // stable, deterministic iteration order
	out, err := exportSubset(names, ordered)
	if err != nil {
		// Bound() only ever names words this map itself bound, so a lookup
		// miss here would mean NameMap's own invariant broke, not a user
		// mistake. Fall back to an empty export set rather than propagate a
		// nil map.
		return code.NewNameMap()
	}
	return out
}

// exportSubset builds a fresh name map containing only the given names,
// looked up from names. A name in list that names isn't bound to is an
// export mismatch (LoadError::ExportMismatch); the caller wraps the
// returned error with the module name.
func exportSubset(names *code.NameMap, list []string) (*code.NameMap, error) {
	out := code.NewNameMap()
	for _, n := range list {
		idx, ok := names.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("export mismatch: %q is not defined", n)
		}
		out.Bind(n, idx)
	}
	return out, nil
}
