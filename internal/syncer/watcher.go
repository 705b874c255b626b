package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// coalesceWindow batches filesystem event bursts (editors and atomic
// renames fire several events per logical save) into one change
// observation, so echo suppression sees exactly one.
const coalesceWindow = 200 * time.Millisecond

// WatchLocal observes the local state file and routes writes through
// NotifyLocalChange. The parent directory is watched, not the file,
// because atomic saves replace the inode. Blocks until ctx is done.
func (s *Syncer) WatchLocal(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating state watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	s.logger.Debug("watching local state", "path", path)

	var pending CancelFunc
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if pending != nil {
				pending()
			}
			pending = s.sched.After(coalesceWindow, s.NotifyLocalChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("state watcher error", "error", err)

		case <-ctx.Done():
			if pending != nil {
				pending()
			}
			return nil
		}
	}
}

// Run starts the engine, watches the state file for local edits, and
// blocks until the context is canceled.
func (s *Syncer) Run(ctx context.Context, statePath string) error {
	s.Start(ctx)
	defer s.Stop()
	return s.WatchLocal(ctx, statePath)
}
