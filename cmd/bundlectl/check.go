package main

import (
	"bytes"
	"context"
	"flag"
	"os"

	"github.com/pkg/errors"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/diag"
	"github.com/tylerdiaz/supergemlock/internal/lockfile"
	"github.com/tylerdiaz/supergemlock/internal/manifest"
	"github.com/tylerdiaz/supergemlock/internal/resolver"
)

const checkShortHelp = `Check whether Gemfile.lock matches the current Gemfile`
const checkLongHelp = `
Check resolves the Gemfile against the given catalog and compares the
result, byte for byte, with the Gemfile.lock already on disk. It never
writes a lock file or snapshot; a mismatch or missing lock file is
reported as an error.
`

type checkCommand struct{}

func (cmd *checkCommand) Name() string      { return "check" }
func (cmd *checkCommand) Args() string      { return "-catalog-dir <dir>" }
func (cmd *checkCommand) ShortHelp() string { return checkShortHelp }
func (cmd *checkCommand) LongHelp() string  { return checkLongHelp }
func (cmd *checkCommand) Hidden() bool      { return false }
func (cmd *checkCommand) Register(fs *flag.FlagSet) {}

func (cmd *checkCommand) Run(ctx context.Context, dctx *diag.Ctx, source catalog.Source, args []string) error {
	if source == nil {
		return errors.New("-catalog-dir is required")
	}

	manifestBytes, err := os.ReadFile(dctx.ManifestPath())
	if err != nil {
		return errors.Wrap(err, "reading manifest")
	}
	m, err := manifest.Parse(bytes.NewReader(manifestBytes))
	if err != nil {
		return errors.Wrap(err, "parsing manifest")
	}

	cache := catalog.New()
	if err := source.Load(cache); err != nil {
		return errors.Wrap(err, "loading catalog")
	}

	res, _, err := resolver.Resolve(ctx, m.Requirements, cache)
	if err != nil {
		return errors.Wrap(err, "resolving dependencies")
	}

	var want bytes.Buffer
	if err := lockfile.Emit(&want, res, m.Requirements, m.Registry); err != nil {
		return errors.Wrap(err, "rendering expected lock file")
	}

	got, err := os.ReadFile(dctx.LockPath())
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New("Gemfile.lock does not exist")
		}
		return errors.Wrap(err, "reading Gemfile.lock")
	}

	if !bytes.Equal(got, want.Bytes()) {
		return errors.New("Gemfile.lock is out of sync with Gemfile")
	}

	dctx.Log.Info("Gemfile.lock is in sync")
	return nil
}
