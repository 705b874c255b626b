package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tasksheet/internal/config"
	"tasksheet/internal/exitcode"
	"tasksheet/internal/syncer"
	"tasksheet/internal/transport"
)

func init() {
	Register(&CheckCmd{})
}

// CheckCmd implements the check command.
type CheckCmd struct{}

func (c *CheckCmd) Name() string      { return "check" }
func (c *CheckCmd) Aliases() []string { return nil }
func (c *CheckCmd) Synopsis() string  { return "Test the sync connection" }
func (c *CheckCmd) Usage() string     { return "tasksheet check [common flags]" }
func (c *CheckCmd) NeedsEngine() bool { return true }

func (c *CheckCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CheckCmd) Run(ctx context.Context, cfg *config.Config, eng *syncer.Syncer, args []string, out, errOut io.Writer) int {
	err := eng.TestConnection(ctx)
	if errors.Is(err, transport.ErrNoTarget) {
		fmt.Fprintln(errOut, "error: no sync target configured (set sheet_id or script_url in sync.yaml)")
		return exitcode.UserError
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: connection failed: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok (%s)\n", eng.Method())
	}
	return exitcode.Success
}
