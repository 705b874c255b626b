package rowcodec

import (
	"encoding/json"

	"tasksheet/internal/model"
)

// SentinelID marks the reserved metadata row. It can never collide with
// a task ID (tasks use UUIDs or spreadsheet-entered short strings, and
// the codec filters this value on decode).
const SentinelID = "__TASKSHEET_META__"

// sentinelTitle makes the row self-describing for people scrolling the
// spreadsheet.
const sentinelTitle = "App metadata (do not edit)"

// EncodeMetadata renders settings and gamification state as the
// sentinel row. Credential-like settings keys are stripped first; the
// remote store is shareable and must never receive secrets.
func EncodeMetadata(meta model.Metadata) Row {
	meta.Settings = meta.Settings.Sanitized()

	payload, err := json.Marshal(meta)
	if err != nil {
		payload = []byte("{}")
	}

	row := make(Row, TaskColumns)
	row[colID] = SentinelID
	row[colTitle] = sentinelTitle
	row[colJSON] = string(payload)
	return row
}

// DecodeMetadata parses the sentinel row. Returns nil if the row is not
// the sentinel or its payload is corrupt.
func DecodeMetadata(row Row) *model.Metadata {
	if cell(row, colID) != SentinelID {
		return nil
	}
	raw := cell(row, colJSON)
	if raw == "" {
		return nil
	}
	var meta model.Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil
	}
	return &meta
}

// IsSentinel reports whether a row is the reserved metadata row.
func IsSentinel(row Row) bool {
	return cell(row, colID) == SentinelID
}
