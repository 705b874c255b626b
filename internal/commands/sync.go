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
	Register(&SyncCmd{})
}

// SyncCmd implements the sync command: pull, reconcile, push. "push"
// is an alias because a one-shot process must reconcile before the
// push gate opens anyway.
type SyncCmd struct{}

func (c *SyncCmd) Name() string      { return "sync" }
func (c *SyncCmd) Aliases() []string { return []string{"push"} }
func (c *SyncCmd) Synopsis() string  { return "Pull, reconcile, and push" }
func (c *SyncCmd) Usage() string     { return "tasksheet sync [common flags]" }
func (c *SyncCmd) NeedsEngine() bool { return true }

func (c *SyncCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SyncCmd) Run(ctx context.Context, cfg *config.Config, eng *syncer.Syncer, args []string, out, errOut io.Writer) int {
	if err := eng.SyncNow(ctx); err != nil {
		if errors.Is(err, transport.ErrNoTarget) {
			fmt.Fprintln(errOut, "error: no sync target configured (set sheet_id or script_url in sync.yaml)")
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: sync failed: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		snap, err := store.NewFileStore(cfg.LocalStatePath()).Load()
		if err == nil {
			output.FormatCounts(out, snap)
		}
		fmt.Fprintln(out, "synced")
	}
	return exitcode.Success
}
