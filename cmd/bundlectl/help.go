package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/diag"
)

const helpShortHelp = `Show help for a command`
const helpLongHelp = `
Help prints a short description of bundlectl's commands. Use
"bundlectl help <command>" to see a specific command's flags.
`

type helpCommand struct{}

func (cmd *helpCommand) Name() string      { return "help" }
func (cmd *helpCommand) Args() string      { return "[command]" }
func (cmd *helpCommand) ShortHelp() string { return helpShortHelp }
func (cmd *helpCommand) LongHelp() string  { return helpLongHelp }
func (cmd *helpCommand) Hidden() bool      { return true }
func (cmd *helpCommand) Register(fs *flag.FlagSet) {}

func (cmd *helpCommand) Run(ctx context.Context, dctx *diag.Ctx, source catalog.Source, args []string) error {
	fmt.Println("Run \"bundlectl\" with no arguments to list commands.")
	return nil
}
