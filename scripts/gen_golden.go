// Command gen_golden regenerates stdout golden fixtures for the example
// scripts under std/testdata/: each FOO.tardi gets a sibling FOO.golden
// holding the bytes its run actually printed, run concurrently through a
// fresh VM per script via an errgroup-driven fan-out under one
// timeout-bounded context.
package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"

	"github.com/tardi-lang/tardi/internal/env"
)

func main() {
	dir := flag.String("dir", "std/testdata", "directory of .tardi fixtures to run")
	timeout := flag.Duration("timeout", 10*time.Second, "overall deadline for regenerating every fixture")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	scripts, err := filepath.Glob(filepath.Join(*dir, "*.tardi"))
	if err != nil {
		log.Fatalf("glob %s: %v", *dir, err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, script := range scripts {
		script := script
		eg.Go(func() error { return regenerate(ctx, script) })
	}
	if err := eg.Wait(); err != nil {
		log.Fatalln(err)
	}
}

// regenerate runs one script to completion in a fresh Env and writes its
// captured stdout to a sibling .golden file, overwriting any prior
// content — the golden files are build artifacts checked in for test
// comparison, not hand-edited.
func regenerate(ctx context.Context, script string) error {
	var out bytes.Buffer
	e, err := env.New(&out, "", nil)
	if err != nil {
		return err
	}

	entry, err := e.CompileFile(script)
	if err != nil {
		return err
	}
	if err := e.VM.Run(ctx, entry); err != nil {
		return err
	}

	golden := script[:len(script)-len(".tardi")] + ".golden"
	return os.WriteFile(golden, out.Bytes(), 0o644)
}
