// Package rowcodec maps tasks, goals, and the metadata sentinel to and
// from the remote row format shared by both transports.
//
// A task row carries two representations at once: the first 16 columns
// are human-editable projections (so edits made directly in the
// spreadsheet are respected), and the final column holds the entity
// serialized verbatim as JSON. On decode the JSON wins as the base and
// any non-blank manual column overrides it; the Last Modified column
// advances the stamp only when strictly newer than the embedded one.
package rowcodec

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tasksheet/internal/model"
)

// Row is an ordered field vector as stored remotely.
type Row []string

// Task row column indexes.
const (
	colID = iota
	colTitle
	colStatus
	colPriority
	colDueDate
	colTimeEstimate
	colActualTime
	colTags
	colScheduledStart
	colBlockers
	colDependencies
	colSubtasks
	colDescription
	colLastModified
	colGoalID
	colGoalTitle
	colJSON

	// TaskColumns is the task row width.
	TaskColumns = colJSON + 1
)

// Goal row column indexes.
const (
	goalColID = iota
	goalColTitle
	goalColColor
	goalColDescription
	goalColCreated
	goalColTextColor

	// GoalColumns is the goal row width.
	GoalColumns = goalColTextColor + 1
)

// TaskHeader is the header row written to the tasks table.
var TaskHeader = Row{
	"ID", "Title", "Status", "Priority", "Due Date", "Time Estimate (h)",
	"Actual Time (s)", "Tags", "Scheduled Start", "Blockers", "Dependencies",
	"Subtasks", "Description", "Last Modified", "Goal ID", "Goal", "JSON",
}

// GoalHeader is the header row written to the goals table.
var GoalHeader = Row{"ID", "Title", "Color", "Description", "Created", "Text Color"}

// UnassignedGoalTitle is written to the Goal column when a task has no
// goal or the goal is unknown. Readability only; ignored on decode.
const UnassignedGoalTitle = "Unassigned"

// EncodeTask renders a task as a remote row. Every cell is populated:
// numbers default to "0" and strings to "" so the spreadsheet never
// shows literal nulls.
func EncodeTask(t model.Task, goalsByID map[string]model.Goal) Row {
	goalTitle := UnassignedGoalTitle
	if g, ok := goalsByID[t.GoalID]; ok && t.GoalID != "" {
		goalTitle = g.Title
	}

	verbatim, err := json.Marshal(t)
	if err != nil {
		// Task fields are plain data; marshal cannot fail in practice.
		verbatim = []byte("{}")
	}

	row := make(Row, TaskColumns)
	row[colID] = t.ID
	row[colTitle] = t.Title
	row[colStatus] = t.Status
	row[colPriority] = t.Priority
	row[colDueDate] = t.DueDate
	row[colTimeEstimate] = formatFloat(t.TimeEstimateHours)
	row[colActualTime] = strconv.FormatInt(t.ActualTimeSeconds, 10)
	row[colTags] = strings.Join(t.Tags, ",")
	row[colScheduledStart] = t.ScheduledStart
	row[colBlockers] = strings.Join(t.Blockers, "; ")
	row[colDependencies] = strings.Join(t.Dependencies, ",")
	row[colSubtasks] = encodeSubtasks(t.Subtasks)
	row[colDescription] = t.Description
	row[colLastModified] = FormatStamp(t.LastModified)
	row[colGoalID] = t.GoalID
	row[colGoalTitle] = goalTitle
	row[colJSON] = string(verbatim)
	return row
}

// DecodeTask parses a remote row back into a task. Returns nil for the
// metadata sentinel row and for structurally invalid rows (callers skip
// those, they are never fatal to a pull).
func DecodeTask(row Row) *model.Task {
	if len(row) == 0 || cell(row, colID) == SentinelID {
		return nil
	}
	if cell(row, colID) == "" && cell(row, colTitle) == "" {
		return nil
	}

	if raw := cell(row, colJSON); raw != "" {
		var t model.Task
		if err := json.Unmarshal([]byte(raw), &t); err == nil && t.ID != "" {
			applyManualColumns(&t, row)
			return &t
		}
	}

	return decodeLegacy(row)
}

// applyManualColumns overrides verbatim fields with non-blank manual
// edits. The Last Modified column only ever advances the stamp, never
// rewinds it.
func applyManualColumns(t *model.Task, row Row) {
	if v := cell(row, colTitle); v != "" {
		t.Title = v
	}
	if v := cell(row, colStatus); v != "" {
		t.Status = v
	}
	if v := cell(row, colPriority); v != "" {
		t.Priority = v
	}
	if v := cell(row, colDueDate); v != "" {
		t.DueDate = v
	}
	if v := cell(row, colTimeEstimate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			t.TimeEstimateHours = f
		}
	}
	if v := cell(row, colActualTime); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			t.ActualTimeSeconds = n
		}
	}
	if v := cell(row, colTags); v != "" {
		t.Tags = splitList(v, ",")
	}
	if v := cell(row, colScheduledStart); v != "" {
		t.ScheduledStart = v
	}
	if v := cell(row, colBlockers); v != "" {
		t.Blockers = splitList(v, ";")
	}
	if v := cell(row, colDependencies); v != "" {
		t.Dependencies = splitList(v, ",")
	}
	// Subtasks only override when the cell diverges from the embedded
	// list: the checkbox rendering drops IDs, so re-adopting an unedited
	// cell would mint new identities on every decode. Edited entries
	// keep their ID when the title still matches.
	if v := cell(row, colSubtasks); v != "" && v != encodeSubtasks(t.Subtasks) {
		t.Subtasks = adoptSubtasks(t.Subtasks, decodeSubtasks(v))
	}
	if v := cell(row, colDescription); v != "" {
		t.Description = v
	}
	if v := cell(row, colGoalID); v != "" {
		t.GoalID = v
	}
	if v := cell(row, colLastModified); v != "" {
		if ms, ok := ParseStamp(v); ok && ms > t.LastModified {
			t.LastModified = ms
		}
	}
}

// decodeLegacy reconstructs a minimal task from manual columns only,
// for rows whose JSON column is absent or corrupt (typically rows typed
// straight into the spreadsheet).
func decodeLegacy(row Row) *model.Task {
	t := model.Task{
		ID:             cell(row, colID),
		Title:          cell(row, colTitle),
		Status:         cell(row, colStatus),
		Priority:       cell(row, colPriority),
		DueDate:        cell(row, colDueDate),
		Tags:           splitList(cell(row, colTags), ","),
		ScheduledStart: cell(row, colScheduledStart),
		Blockers:       splitList(cell(row, colBlockers), ";"),
		Dependencies:   splitList(cell(row, colDependencies), ","),
		Subtasks:       decodeSubtasks(cell(row, colSubtasks)),
		Description:    cell(row, colDescription),
		GoalID:         cell(row, colGoalID),
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = model.DefaultStatus
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if f, err := strconv.ParseFloat(cell(row, colTimeEstimate), 64); err == nil {
		t.TimeEstimateHours = f
	}
	if n, err := strconv.ParseInt(cell(row, colActualTime), 10, 64); err == nil {
		t.ActualTimeSeconds = n
	}
	if ms, ok := ParseStamp(cell(row, colLastModified)); ok {
		t.LastModified = ms
	}
	return &t
}

// EncodeGoal renders a goal as a remote row.
func EncodeGoal(g model.Goal) Row {
	row := make(Row, GoalColumns)
	row[goalColID] = g.ID
	row[goalColTitle] = g.Title
	row[goalColColor] = g.Color
	row[goalColDescription] = g.Description
	row[goalColCreated] = g.CreatedDate
	row[goalColTextColor] = g.TextColor
	return row
}

// DecodeGoal parses a goal row, returning nil for blank rows.
func DecodeGoal(row Row) *model.Goal {
	if cell(row, goalColID) == "" && cell(row, goalColTitle) == "" {
		return nil
	}
	return &model.Goal{
		ID:          cell(row, goalColID),
		Title:       cell(row, goalColTitle),
		Color:       cell(row, goalColColor),
		Description: cell(row, goalColDescription),
		CreatedDate: cell(row, goalColCreated),
		TextColor:   cell(row, goalColTextColor),
	}
}

// FormatStamp renders a Unix-millisecond stamp as RFC 3339 for the
// human-editable Last Modified column. Zero renders blank.
func FormatStamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}

// ParseStamp parses the Last Modified column. Accepts RFC 3339 and, for
// rows hand-edited with a raw number, Unix milliseconds.
func ParseStamp(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts.UnixMilli(), true
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return ms, true
	}
	return 0, false
}

func encodeSubtasks(subs []model.Subtask) string {
	if len(subs) == 0 {
		return ""
	}
	lines := make([]string, len(subs))
	for i, s := range subs {
		box := "[ ] "
		if s.Done {
			box = "[x] "
		}
		lines[i] = box + s.Title
	}
	return strings.Join(lines, "\n")
}

func decodeSubtasks(s string) []model.Subtask {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var subs []model.Subtask
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sub := model.Subtask{Title: line}
		switch {
		case strings.HasPrefix(line, "[x] "), strings.HasPrefix(line, "[X] "):
			sub.Done = true
			sub.Title = strings.TrimSpace(line[4:])
		case strings.HasPrefix(line, "[ ] "):
			sub.Title = strings.TrimSpace(line[4:])
		}
		subs = append(subs, sub)
	}
	return subs
}

// adoptSubtasks carries IDs over from the previous list by title, so
// ticking a checkbox in the spreadsheet keeps the subtask's identity.
func adoptSubtasks(prev, next []model.Subtask) []model.Subtask {
	byTitle := make(map[string]string, len(prev))
	for _, s := range prev {
		if _, ok := byTitle[s.Title]; !ok {
			byTitle[s.Title] = s.ID
		}
	}
	for i := range next {
		next[i].ID = byTitle[next[i].Title]
	}
	return next
}

func splitList(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cell returns the column value or "" when the row is too short. Remote
// stores trim trailing empty cells, so short rows are routine.
func cell(row Row, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
