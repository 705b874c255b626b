// Package main is the entry point for the tasksheet CLI.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tasksheet/internal/cli"
	"tasksheet/internal/commands"
	"tasksheet/internal/config"
	"tasksheet/internal/store"
	"tasksheet/internal/syncer"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create engine factory
	factory := func(ctx context.Context, cfg *config.Config) (*syncer.Syncer, error) {
		logger := newLogger(cfg)
		tr, method, err := syncer.SelectTransport(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return syncer.New(syncer.Options{
			Transport:    tr,
			Method:       method,
			Store:        store.NewFileStore(cfg.LocalStatePath()),
			Logger:       logger,
			Debounce:     cfg.DebounceAfter(),
			PollInterval: cfg.PollEvery(),
		}), nil
	}

	// Create dispatcher
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newLogger builds the engine logger. Engine logs go to stderr so
// command output on stdout stays scriptable.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	if cfg.Quiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
