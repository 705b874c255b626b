package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksheet/internal/config"
	"tasksheet/internal/exitcode"
	"tasksheet/internal/output"
	"tasksheet/internal/store"
	"tasksheet/internal/syncer"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command. It reports configuration
// and local state without touching the network, so it needs no engine.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return nil }
func (c *StatusCmd) Synopsis() string  { return "Show sync configuration and local state" }
func (c *StatusCmd) Usage() string     { return "tasksheet status [common flags]" }
func (c *StatusCmd) NeedsEngine() bool { return false }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, eng *syncer.Syncer, args []string, out, errOut io.Writer) int {
	method, target := describeTarget(cfg)
	fmt.Fprintf(out, "method: %s\n", method)
	if target != "" {
		fmt.Fprintf(out, "target: %s\n", target)
	}
	fmt.Fprintf(out, "state:  %s\n", cfg.LocalStatePath())

	snap, err := store.NewFileStore(cfg.LocalStatePath()).Load()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	output.FormatCounts(out, snap)
	return exitcode.Success
}

// describeTarget mirrors the transport selection precedence without
// constructing a transport.
func describeTarget(cfg *config.Config) (syncer.Method, string) {
	switch {
	case cfg.ScriptURL != "":
		return syncer.MethodScript, cfg.ScriptURL
	case cfg.SheetID != "" && cfg.HasToken():
		return syncer.MethodSheets, cfg.SheetID
	case cfg.SheetID != "":
		return syncer.MethodNone, cfg.SheetID + " (not signed in, run: tasksheet login)"
	default:
		return syncer.MethodNone, ""
	}
}
