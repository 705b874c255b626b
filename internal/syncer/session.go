package syncer

import "time"

// Method identifies which transport a session uses.
type Method string

// Transport methods in configuration-precedence order: a script URL
// wins over a sheet ID, a sheet ID requires a signed-in session, and
// with neither the engine idles.
const (
	MethodNone   Method = "none"
	MethodSheets Method = "direct-api"
	MethodScript Method = "script-proxy"
)

// Status is the engine's externally visible state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Session is the sync session state. It is a plain value owned by the
// Syncer (no process-wide singletons); Syncer.Session() hands out
// copies for display.
type Session struct {
	Method Method
	Status Status

	// InitialPullComplete gates every push: until the first successful
	// reconciliation for the current configuration, pushing would let
	// an empty or half-hydrated local state clobber a populated remote
	// store.
	InitialPullComplete bool

	// Dirty means local changes await a push.
	Dirty bool

	LastSync  time.Time
	LastError string
}

// reset returns the session to its post-(re)configuration state. Any
// change of transport or target forces a fresh reconciliation before a
// push is permitted again.
func (s *Session) reset(method Method) {
	s.Method = method
	s.Status = StatusIdle
	s.InitialPullComplete = false
	s.Dirty = false
	s.LastError = ""
}
