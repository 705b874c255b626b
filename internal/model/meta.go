package model

import (
	"encoding/json"
	"strings"
)

// Settings is the user's application settings aggregate. The engine
// treats it as opaque except for secret stripping before remote writes.
type Settings map[string]any

// Gamification is opaque gamification state (streaks, points, history).
// The engine round-trips it verbatim.
type Gamification = json.RawMessage

// Metadata is the non-task state piggybacked onto the remote store via
// the sentinel row.
type Metadata struct {
	Settings     Settings     `json:"settings,omitempty"`
	Gamification Gamification `json:"gamification,omitempty"`
}

// secretKeyTokens marks settings keys that must never leave the device.
// Matching is case-insensitive substring, same shape as log redaction.
var secretKeyTokens = []string{
	"token", "secret", "password", "apikey", "api_key", "credential",
}

// Sanitized returns a copy of the settings with credential-like keys
// removed. The original map is not modified.
func (s Settings) Sanitized() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for k, v := range s {
		if IsSecretKey(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// IsSecretKey reports whether a settings key is credential-like and
// must stay on the device.
func IsSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, tok := range secretKeyTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// Snapshot is the locally-held authoritative aggregate: everything the
// engine pushes to, and reconciles against, the remote store.
type Snapshot struct {
	Tasks        []Task       `json:"tasks"`
	Goals        []Goal       `json:"goals"`
	Settings     Settings     `json:"settings,omitempty"`
	Gamification Gamification `json:"gamification,omitempty"`
}
