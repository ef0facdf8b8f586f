package main

import (
	"context"
	"flag"
	"os"

	"github.com/pkg/errors"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/diag"
	"github.com/tylerdiaz/supergemlock/internal/orchestrator"
)

const updateShortHelp = `Force a fresh resolution, bypassing the fast-path snapshot`
const updateLongHelp = `
Update forces a full resolution even if the snapshot at Gemfile.lock.bin
matches the current Gemfile, then writes a fresh Gemfile.lock and
Gemfile.lock.bin.

Named arguments are accepted but do not scope the update: every root
requirement is re-resolved, matching the resolver's current scope.
`

type updateCommand struct{}

func (cmd *updateCommand) Name() string      { return "update" }
func (cmd *updateCommand) Args() string      { return "-catalog-dir <dir> [names...]" }
func (cmd *updateCommand) ShortHelp() string { return updateShortHelp }
func (cmd *updateCommand) LongHelp() string  { return updateLongHelp }
func (cmd *updateCommand) Hidden() bool      { return false }
func (cmd *updateCommand) Register(fs *flag.FlagSet) {}

func (cmd *updateCommand) Run(ctx context.Context, dctx *diag.Ctx, source catalog.Source, args []string) error {
	if source == nil {
		return errors.New("-catalog-dir is required")
	}
	if err := os.Remove(dctx.SnapshotPath()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "clearing existing snapshot")
	}

	result, err := orchestrator.Run(ctx, dctx, source)
	if err != nil {
		return err
	}
	dctx.Log.Infof("resolved %d gems", len(result.Resolution.Sequence))
	return nil
}
