package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksheet/internal/config"
	"tasksheet/internal/exitcode"
	"tasksheet/internal/syncer"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "tasksheet help" }
func (c *HelpCmd) NeedsEngine() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, eng *syncer.Syncer, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  tasksheet status [common flags]   Show sync configuration and local state
  tasksheet check [common flags]    Test the sync connection
  tasksheet pull [common flags]     Pull remote changes into local state
  tasksheet sync [common flags]     Pull, reconcile, and push (alias: push)
  tasksheet watch [common flags]    Run the sync engine until interrupted
  tasksheet login [common flags]
  tasksheet logout [common flags]
  tasksheet help
  tasksheet version

Sync targets (sync.yaml in the config directory):
  script_url: <url>    Sync through a deployed script proxy (no login)
  sheet_id: <id>       Sync through the Google Sheets API (requires login)

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
