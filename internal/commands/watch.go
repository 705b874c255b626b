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
	Register(&WatchCmd{})
}

// WatchCmd implements the watch command: the long-running engine.
// Local edits to the state file are picked up via the filesystem
// watcher and pushed after the debounce window; remote edits arrive
// through background polling.
type WatchCmd struct{}

func (c *WatchCmd) Name() string      { return "watch" }
func (c *WatchCmd) Aliases() []string { return nil }
func (c *WatchCmd) Synopsis() string  { return "Run the sync engine until interrupted" }
func (c *WatchCmd) Usage() string     { return "tasksheet watch [common flags]" }
func (c *WatchCmd) NeedsEngine() bool { return true }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, eng *syncer.Syncer, args []string, out, errOut io.Writer) int {
	if eng.Method() == syncer.MethodNone {
		fmt.Fprintln(errOut, "error: no sync target configured (set sheet_id or script_url in sync.yaml)")
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "watching %s via %s (poll every %s)\n",
			cfg.LocalStatePath(), eng.Method(), cfg.PollEvery())
	}

	if err := eng.Run(ctx, cfg.LocalStatePath()); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
