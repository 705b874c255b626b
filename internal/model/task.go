// Package model defines the task, goal, and metadata entities shared by
// the codec, merge engine, and sync orchestrator.
package model

import "time"

// Priority levels. Stored as plain strings so rows edited by hand in the
// spreadsheet stay readable.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// DefaultStatus is the initial board column for tasks reconstructed from
// rows that carry no status.
const DefaultStatus = "todo"

// Subtask is a single checklist entry under a task.
type Subtask struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Task is the unit of synchronization. LastModified is the sole arbiter
// of recency between local and remote copies; every observable mutation
// must advance it.
type Task struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Status            string    `json:"status"`
	Priority          string    `json:"priority"`
	DueDate           string    `json:"dueDate,omitempty"`
	TimeEstimateHours float64   `json:"timeEstimateHours,omitempty"`
	ActualTimeSeconds int64     `json:"actualTimeSeconds,omitempty"`
	Tags              []string  `json:"tags,omitempty"`
	ScheduledStart    string    `json:"scheduledStart,omitempty"`
	Blockers          []string  `json:"blockers,omitempty"`
	Dependencies      []string  `json:"dependencies,omitempty"`
	Subtasks          []Subtask `json:"subtasks,omitempty"`
	Description       string    `json:"description,omitempty"`
	GoalID            string    `json:"goalId,omitempty"`

	// LastModified is a wall-clock stamp in Unix milliseconds.
	LastModified int64 `json:"lastModified"`
}

// ModifiedTime returns the LastModified stamp as a time.Time.
func (t *Task) ModifiedTime() time.Time {
	return time.UnixMilli(t.LastModified)
}

// Touch advances LastModified to now, keeping it strictly monotonic even
// when called twice within the same millisecond.
func (t *Task) Touch() {
	now := time.Now().UnixMilli()
	if now <= t.LastModified {
		now = t.LastModified + 1
	}
	t.LastModified = now
}

// Goal is a lightweight grouping entity. Goals carry no modification
// stamp; merge is overwrite-by-presence only.
type Goal struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Color       string `json:"color,omitempty"`
	TextColor   string `json:"textColor,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedDate string `json:"createdDate,omitempty"`
}

// GoalsByID indexes goals for title resolution during row encoding.
func GoalsByID(goals []Goal) map[string]Goal {
	m := make(map[string]Goal, len(goals))
	for _, g := range goals {
		m[g.ID] = g
	}
	return m
}
