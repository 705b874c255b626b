package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tasksheet/internal/config"
	"tasksheet/internal/exitcode"
	"tasksheet/internal/output"
	"tasksheet/internal/store"
	"tasksheet/internal/syncer"
	"tasksheet/internal/transport"
)

func init() {
	Register(&PullCmd{})
}

// PullCmd implements the pull command: a manual pull and merge into
// the local state file, without pushing.
type PullCmd struct{}

func (c *PullCmd) Name() string      { return "pull" }
func (c *PullCmd) Aliases() []string { return nil }
func (c *PullCmd) Synopsis() string  { return "Pull remote changes into local state" }
func (c *PullCmd) Usage() string     { return "tasksheet pull [common flags]" }
func (c *PullCmd) NeedsEngine() bool { return true }

func (c *PullCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *PullCmd) Run(ctx context.Context, cfg *config.Config, eng *syncer.Syncer, args []string, out, errOut io.Writer) int {
	if err := eng.PullOnce(ctx); err != nil {
		if errors.Is(err, transport.ErrNoTarget) {
			fmt.Fprintln(errOut, "error: no sync target configured (set sheet_id or script_url in sync.yaml)")
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: pull failed: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		snap, err := store.NewFileStore(cfg.LocalStatePath()).Load()
		if err == nil {
			output.FormatCounts(out, snap)
		}
		if eng.Session().Dirty {
			fmt.Fprintln(out, "remote store is behind local state; run 'tasksheet sync' to repair")
		}
	}
	return exitcode.Success
}
