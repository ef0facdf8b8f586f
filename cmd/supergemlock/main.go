package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tylerdiaz/supergemlock/internal/catalog/fixture"
	"github.com/tylerdiaz/supergemlock/internal/diag"
	"github.com/tylerdiaz/supergemlock/internal/dlog"
	"github.com/tylerdiaz/supergemlock/internal/orchestrator"
)

const toolVersion = "0.1.0"

var (
	verbose    = flag.Bool("v", false, "enable verbose logging")
	showHelp   = flag.Bool("h", false, "show this help")
	showVers   = flag.Bool("version", false, "print the version and exit")
	catalogDir = flag.String("catalog-dir", "", "directory of per-library catalog fixtures (required)")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showHelp {
		usage()
		return
	}
	if *showVers {
		fmt.Println(toolVersion)
		return
	}
	if *catalogDir == "" {
		fmt.Fprintln(os.Stderr, "supergemlock: -catalog-dir is required")
		usage()
		os.Exit(1)
	}

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "supergemlock: %v\n", err)
		os.Exit(1)
	}

	dctx := &diag.Ctx{
		WorkingDir:   wd,
		ManifestName: "Gemfile",
		LockName:     "Gemfile.lock",
		SnapshotName: "Gemfile.lock.bin",
		Log:          dlog.New(os.Stderr, *verbose),
	}

	source := fixture.New(*catalogDir)

	if _, err := orchestrator.Run(context.Background(), dctx, source); err != nil {
		fmt.Fprintf(os.Stderr, "supergemlock: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: supergemlock [-v] -catalog-dir <dir>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Resolves the Gemfile in the current directory and writes")
	fmt.Fprintln(os.Stderr, "Gemfile.lock and Gemfile.lock.bin.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}
