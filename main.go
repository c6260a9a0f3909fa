// Command tardi runs Tardi source: `tardi FILE` compiles and runs a script
// after bootstrap; bare `tardi` starts a line-at-a-time REPL over stdin.
// It is a thin driver over internal/env: flag parsing, logio.Logger for
// diagnostics, a panic-isolated VM.Run, and an exit code derived from the
// error actually returned rather than a generic failure.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tardi-lang/tardi/internal/env"
	"github.com/tardi-lang/tardi/internal/logio"
	"github.com/tardi-lang/tardi/internal/panicerr"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

func main() {
	var (
		printStack bool
		initScript string
		trace      bool
		dump       bool
		timeout    time.Duration
	)
	flag.BoolVar(&printStack, "print-stack", false, "print the data stack bottom-to-top after each top-level evaluation")
	flag.StringVar(&initScript, "init-script", "", "compile an additional script before FILE/REPL (its top-level code is not run and its definitions are not visible to FILE/REPL)")
	flag.BoolVar(&trace, "trace", false, "enable step-trace logging")
	flag.BoolVar(&dump, "dump", false, "print a stack/instruction-stream dump after execution")
	flag.DurationVar(&timeout, "timeout", 0, "abort evaluation after the given duration")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)

	dataDir := os.Getenv("TARDI_DATA_DIR")
	e, err := env.New(os.Stdout, dataDir, searchDirs(dataDir))
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(2)
	}
	if trace {
		e.VM.SetLogf(log.Leveledf("TRACE"))
	}

	if initScript != "" {
		if _, err := e.CompileFile(initScript); err != nil {
			log.Errorf("%v", err)
			os.Exit(terr.ExitCode(err))
		}
	}

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var code int
	if args := flag.Args(); len(args) > 0 {
		code = runFile(ctx, e, &log, args[0], printStack)
	} else {
		code = runREPL(ctx, e, &log, printStack)
	}
	if dump {
		dumper{e: e, out: os.Stdout}.dump()
	}
	os.Exit(code)
}

// searchDirs builds the non-std module search path: the data dir override
// (if set) ahead of the current directory. std/ module names never use this
// list: internal/env resolves them against the data dir (if set) and then
// the embedded std/ tree.
func searchDirs(dataDir string) []string {
	var dirs []string
	if dataDir != "" {
		dirs = append(dirs, dataDir)
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	return dirs
}

// runFile compiles and runs one script as a single top-level evaluation. A
// freshly built Env's stacks already start empty, so there is nothing to
// clear between "script invocations" the way a long-lived REPL would need
// to.
func runFile(ctx context.Context, e *env.Env, log *logio.Logger, path string, printStack bool) int {
	entry, err := e.CompileFile(path)
	if err != nil {
		log.Errorf("%v", err)
		return terr.ExitCode(err)
	}

	runErr := panicerr.Recover("tardi", func() error { return e.VM.Run(ctx, entry) })
	if runErr != nil {
		log.Errorf("%v", runErr)
	}
	if printStack {
		printDataStack(e, os.Stdout)
	}
	if runErr != nil {
		return terr.ExitCode(runErr)
	}
	return 0
}

// runREPL reads one line at a time, compiling and running each as its own
// top-level evaluation against the same Env. The stacks persist across
// lines, but each line compiles against a fresh copy of the root
// vocabulary, so word definitions and uses: imports made on one line are
// not visible on later lines. An error
// clears nothing but the compiler's own (already-done) frame; the data
// stack is left exactly as the failed evaluation left it, intentionally,
// to aid debugging the line that failed.
func runREPL(ctx context.Context, e *env.Env, log *logio.Logger, printStack bool) int {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := e.CompileReader("<repl>", strings.NewReader(line))
		if err != nil {
			log.Errorf("%v", err)
			continue
		}
		runErr := panicerr.Recover("tardi", func() error { return e.VM.Run(ctx, entry) })
		if runErr != nil {
			log.Errorf("%v", runErr)
		}
		if printStack {
			printDataStack(e, os.Stdout)
		}
	}
	return 0
}

// printDataStack renders the data stack bottom-to-top for --print-stack,
// using each value's debug form so strings and chars round-trip
// unambiguously.
func printDataStack(e *env.Env, w io.Writer) {
	fmt.Fprint(w, "stack:")
	e.VM.Data().Each(func(v *value.Shared) {
		fmt.Fprint(w, " ", v.V.Render(value.Debug))
	})
	fmt.Fprintln(w)
}
