// Package merge reconciles the local task set with a freshly pulled
// remote set.
//
// Tasks are arbitrated by their LastModified stamp with a skew
// tolerance: stamps within one second of each other are treated as
// concurrent and local wins, favoring UI stability over remote
// authority and avoiding push/pull thrash from clock jitter or
// sub-second round trips. Goals are edited rarely enough that a simpler
// rule holds: union of IDs, remote overwrites on collision.
package merge

import (
	"bytes"
	"encoding/json"

	"tasksheet/internal/model"
)

// SkewTolerance is the window within which two stamps are treated as
// concurrent rather than ordered.
const SkewTolerance = 1000 // milliseconds

// Result describes the outcome of a task merge.
type Result struct {
	// Merged is the reconciled task set. Every ID present in either
	// input appears exactly once; local order is preserved, remote-only
	// tasks are appended in remote order.
	Merged []model.Task

	// LocalIsStale reports that at least one local task is newer than
	// its remote counterpart, i.e. the remote store needs a repair
	// push. Only reported on non-polling passes: during steady-state
	// polling a local-wins outcome is expected and not itself a
	// trigger for repair.
	LocalIsStale bool

	// RemoteChanged reports that the merged set differs from the local
	// input, i.e. the caller should apply it to local state.
	RemoteChanged bool
}

// Tasks merges remote into local. Local is the default source of truth
// for anything not contradicted; a remote task only displaces its local
// counterpart when its stamp is newer by more than the skew tolerance
// and the two are not structurally identical.
func Tasks(local, remote []model.Task, polling bool) Result {
	res := Result{Merged: make([]model.Task, len(local))}
	copy(res.Merged, local)

	index := make(map[string]int, len(local))
	for i, t := range local {
		index[t.ID] = i
	}

	for _, r := range remote {
		i, ok := index[r.ID]
		if !ok {
			// Index the insertion so a duplicated remote row (the same
			// ID twice) arbitrates against it instead of landing twice.
			index[r.ID] = len(res.Merged)
			res.Merged = append(res.Merged, r)
			res.RemoteChanged = true
			continue
		}

		l := res.Merged[i]
		switch {
		case r.LastModified-l.LastModified > SkewTolerance:
			if !equalTasks(l, r) {
				res.Merged[i] = r
				res.RemoteChanged = true
			}
		case l.LastModified-r.LastModified > SkewTolerance:
			if !polling {
				res.LocalIsStale = true
			}
		default:
			// Within tolerance: keep local, even if contents differ.
		}
	}

	return res
}

// Goals merges remote goals into local: union of IDs, remote entry
// overwrites unconditionally when both exist, local-only goals are
// kept. The second return reports whether the result differs from the
// local input.
func Goals(local, remote []model.Goal) ([]model.Goal, bool) {
	merged := make([]model.Goal, len(local))
	copy(merged, local)

	index := make(map[string]int, len(local))
	for i, g := range local {
		index[g.ID] = i
	}

	changed := false
	for _, r := range remote {
		if i, ok := index[r.ID]; ok {
			if merged[i] != r {
				merged[i] = r
				changed = true
			}
			continue
		}
		merged = append(merged, r)
		changed = true
	}
	return merged, changed
}

// equalTasks compares two tasks structurally, ignoring the stamp, via
// their canonical JSON form. A remote copy that is newer only in its
// stamp carries no edit worth adopting.
func equalTasks(a, b model.Task) bool {
	a.LastModified = 0
	b.LastModified = 0
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
