// Package transport defines the contract both sync transports share.
// The orchestrator never knows which medium it is talking to.
package transport

import (
	"context"
	"errors"

	"tasksheet/internal/model"
)

// ErrNoTarget is returned when no sync target is configured. The
// orchestrator idles silently on it; it is never surfaced to the user.
var ErrNoTarget = errors.New("no sync target configured")

// ErrAuthRequired is returned by the direct-API transport when no valid
// signed-in session exists. It blocks transport selection.
var ErrAuthRequired = errors.New("not signed in")

// Payload is one full remote dataset: what Pull returns and Push sends.
type Payload struct {
	Tasks []model.Task
	Goals []model.Goal

	// Meta is the sentinel-row content, nil when the remote store
	// carries none (fresh store, or a proxy that never wrote it).
	Meta *model.Metadata
}

// Transport reads and writes the remote store as a whole. Both
// implementations are full-overwrite: Push replaces the remote dataset,
// Pull fetches all of it. Per-row decode failures are skipped, never
// fatal.
type Transport interface {
	// TestConnection verifies the target is reachable and well-formed.
	TestConnection(ctx context.Context) error

	// Pull fetches and decodes the complete remote dataset.
	Pull(ctx context.Context) (*Payload, error)

	// Push overwrites the remote dataset.
	Push(ctx context.Context, p *Payload) error
}

// Initializer is implemented by transports that need remote schema
// setup (header rows) before first use. The direct-API transport
// implements it; the script proxy trusts the remote side's schema.
type Initializer interface {
	EnsureSchema(ctx context.Context) error
}
