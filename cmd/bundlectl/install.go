package main

import (
	"context"
	"flag"

	"github.com/pkg/errors"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/diag"
	"github.com/tylerdiaz/supergemlock/internal/orchestrator"
)

const installShortHelp = `Resolve the Gemfile and write Gemfile.lock`
const installLongHelp = `
Install resolves the Gemfile in the current directory against the given
catalog and writes Gemfile.lock and Gemfile.lock.bin. If an unchanged
snapshot from a previous run is present, resolution is skipped.
`

type installCommand struct{}

func (cmd *installCommand) Name() string      { return "install" }
func (cmd *installCommand) Args() string      { return "-catalog-dir <dir>" }
func (cmd *installCommand) ShortHelp() string { return installShortHelp }
func (cmd *installCommand) LongHelp() string  { return installLongHelp }
func (cmd *installCommand) Hidden() bool      { return false }
func (cmd *installCommand) Register(fs *flag.FlagSet) {}

func (cmd *installCommand) Run(ctx context.Context, dctx *diag.Ctx, source catalog.Source, args []string) error {
	if source == nil {
		return errors.New("-catalog-dir is required")
	}
	result, err := orchestrator.Run(ctx, dctx, source)
	if err != nil {
		return err
	}
	if result.FastPath {
		dctx.Log.Info("Gemfile.lock is already up to date, using the following resolution:")
		if result.Snapshot != nil {
			for _, rec := range result.Snapshot.Records {
				dctx.Log.Infof("  %s (%s)", rec.Name, rec.Version)
			}
		}
		return nil
	}
	dctx.Log.Infof("resolved %d gems", len(result.Resolution.Sequence))
	return nil
}
