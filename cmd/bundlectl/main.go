package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/catalog/fixture"
	"github.com/tylerdiaz/supergemlock/internal/diag"
	"github.com/tylerdiaz/supergemlock/internal/dlog"
)

type command interface {
	Name() string           // "install"
	Args() string           // "[names...]"
	ShortHelp() string      // "Resolve and lock dependencies"
	LongHelp() string       // full usage text
	Register(*flag.FlagSet) // command-specific flags
	Hidden() bool
	Run(ctx context.Context, dctx *diag.Ctx, source catalog.Source, args []string) error
}

func main() {
	os.Exit(run(os.Args, os.Stderr))
}

func run(args []string, stderr *os.File) (exitCode int) {
	commands := []command{
		&installCommand{},
		&updateCommand{},
		&checkCommand{},
		&helpCommand{},
	}

	usage := func() {
		fmt.Fprintln(stderr, "bundlectl manages a Gemfile's resolved dependency set")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage: bundlectl <command>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Commands:")
		fmt.Fprintln(stderr)
		w := tabwriter.NewWriter(stderr, 0, 4, 2, ' ', 0)
		for _, cmd := range commands {
			if !cmd.Hidden() {
				fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.ShortHelp())
			}
		}
		w.Flush()
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, `Use "bundlectl help <command>" for more information about a command.`)
	}

	cmdName, printCmdHelp, exit := parseArgs(args)
	if exit {
		usage()
		return 1
	}

	var catalogDir string
	var verbose bool

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}

		fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		fs.SetOutput(stderr)
		fs.StringVar(&catalogDir, "catalog-dir", "", "directory of per-library catalog fixtures")
		fs.BoolVar(&verbose, "v", false, "enable verbose logging")
		cmd.Register(fs)
		commandUsage(stderr, cmd, fs)

		if printCmdHelp {
			fs.Usage()
			return 1
		}
		if err := fs.Parse(args[2:]); err != nil {
			return 1
		}

		wd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(stderr, "bundlectl: %v\n", err)
			return 1
		}
		dctx := &diag.Ctx{
			WorkingDir:   wd,
			ManifestName: "Gemfile",
			LockName:     "Gemfile.lock",
			SnapshotName: "Gemfile.lock.bin",
			Log:          dlog.New(stderr, verbose),
		}

		var source catalog.Source
		if catalogDir != "" {
			source = fixture.New(catalogDir)
		}

		if err := cmd.Run(context.Background(), dctx, source, fs.Args()); err != nil {
			fmt.Fprintf(stderr, "bundlectl: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stderr, "bundlectl: %s: no such command\n", cmdName)
	usage()
	return 1
}

// commandUsage installs fs.Usage so an explicit "help <command>", a -h
// flag, and a bad flag all print the same text, built directly from
// cmd's own Name/Args/LongHelp rather than from copied-out strings.
func commandUsage(stderr *os.File, cmd command, fs *flag.FlagSet) {
	var flagLines []string
	fs.VisitAll(func(f *flag.Flag) {
		def := f.DefValue
		if def == "" {
			def = "<none>"
		}
		flagLines = append(flagLines, fmt.Sprintf("\t-%s\t%s (default: %s)\n", f.Name, f.Usage, def))
	})

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: bundlectl %s %s\n\n", cmd.Name(), cmd.Args())
		fmt.Fprintln(stderr, strings.TrimSpace(cmd.LongHelp()))
		if len(flagLines) == 0 {
			return
		}
		fmt.Fprintln(stderr, "\nFlags:")
		fmt.Fprintln(stderr)
		w := tabwriter.NewWriter(stderr, 0, 4, 2, ' ', 0)
		for _, line := range flagLines {
			fmt.Fprint(w, line)
		}
		w.Flush()
	}
}

// isHelpToken reports whether a bare argument is asking for help rather
// than naming something (a command, a library).
func isHelpToken(s string) bool {
	s = strings.ToLower(s)
	return s == "-h" || strings.Contains(s, "help")
}

// parseArgs splits off everything after the program name and classifies
// it: no arguments at all means print the top-level command list; a
// leading help token means the next token (if any) names the command to
// show help for; otherwise the first token is the command name itself.
func parseArgs(args []string) (cmdName string, printCmdHelp bool, exit bool) {
	if len(args) == 0 {
		return "", false, true
	}
	rest := args[1:]

	switch {
	case len(rest) == 0:
		return "", false, true
	case isHelpToken(rest[0]):
		if len(rest) == 1 {
			return "", false, true
		}
		return rest[1], true, false
	default:
		return rest[0], false, false
	}
}
