// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"tasksheet/internal/model"
	"tasksheet/internal/transport"
)

// FakeTransport is an in-memory implementation of transport.Transport
// for testing. It also implements transport.Initializer so the schema
// init path of non-polling pulls is exercised.
type FakeTransport struct {
	mu     sync.Mutex
	remote transport.Payload

	// Error injection for testing
	TestErr   error
	PullErr   error
	PushErr   error
	SchemaErr error

	// Call counters
	PullCount   int
	PushCount   int
	SchemaCount int

	// OnPull, when set, runs at the start of every Pull, before the
	// remote dataset is read. Tests use it to interleave engine calls
	// with an in-flight pull.
	OnPull func()

	// Pushed records every payload received by Push.
	Pushed []transport.Payload
}

// NewFakeTransport creates a fake with an empty remote store.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// SetRemote replaces the remote dataset.
func (f *FakeTransport) SetRemote(tasks []model.Task, goals []model.Goal, meta *model.Metadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remote = transport.Payload{Tasks: tasks, Goals: goals, Meta: meta}
}

// Remote returns a copy of the current remote dataset.
func (f *FakeTransport) Remote() transport.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyPayload(f.remote)
}

// TestConnection implements transport.Transport.
func (f *FakeTransport) TestConnection(ctx context.Context) error {
	return f.TestErr
}

// EnsureSchema implements transport.Initializer.
func (f *FakeTransport) EnsureSchema(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SchemaCount++
	return f.SchemaErr
}

// Pull implements transport.Transport.
func (f *FakeTransport) Pull(ctx context.Context) (*transport.Payload, error) {
	if f.OnPull != nil {
		f.OnPull()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PullCount++
	if f.PullErr != nil {
		return nil, f.PullErr
	}
	p := copyPayload(f.remote)
	return &p, nil
}

// Push implements transport.Transport.
func (f *FakeTransport) Push(ctx context.Context, p *transport.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PushCount++
	if f.PushErr != nil {
		return f.PushErr
	}
	cp := copyPayload(*p)
	f.Pushed = append(f.Pushed, cp)
	f.remote = cp
	return nil
}

func copyPayload(p transport.Payload) transport.Payload {
	cp := transport.Payload{
		Tasks: append([]model.Task(nil), p.Tasks...),
		Goals: append([]model.Goal(nil), p.Goals...),
	}
	if p.Meta != nil {
		meta := *p.Meta
		cp.Meta = &meta
	}
	return cp
}
