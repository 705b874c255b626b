// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"time"

	"tasksheet/internal/model"
	"tasksheet/internal/syncer"
)

// FormatCounts prints the local snapshot summary line.
func FormatCounts(w io.Writer, snap model.Snapshot) {
	fmt.Fprintf(w, "%d tasks, %d goals\n", len(snap.Tasks), len(snap.Goals))
}

// FormatSession prints the engine session state, one field per line.
func FormatSession(w io.Writer, s syncer.Session) {
	fmt.Fprintf(w, "status: %s\n", s.Status)
	if s.LastError != "" {
		fmt.Fprintf(w, "error:  %s\n", s.LastError)
	}
	if !s.LastSync.IsZero() {
		fmt.Fprintf(w, "synced: %s\n", s.LastSync.UTC().Format(time.RFC3339))
	}
	if s.Dirty {
		fmt.Fprintln(w, "local changes pending push")
	}
}
