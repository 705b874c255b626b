package testutil

import (
	"sync"
	"time"

	"tasksheet/internal/syncer"
)

// FakeScheduler is a manually-driven syncer.Scheduler. Callbacks never
// run until the test fires them, so engine tests are deterministic and
// free of wall-clock waits.
type FakeScheduler struct {
	mu      sync.Mutex
	nextID  int
	timers  map[int]func() // one-shots (After)
	tickers map[int]func() // repeating (Every)
}

// NewFakeScheduler creates an empty fake scheduler.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{
		timers:  make(map[int]func()),
		tickers: make(map[int]func()),
	}
}

// After implements syncer.Scheduler.
func (s *FakeScheduler) After(d time.Duration, fn func()) syncer.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.timers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.timers, id)
	}
}

// Every implements syncer.Scheduler.
func (s *FakeScheduler) Every(d time.Duration, fn func()) syncer.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.tickers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.tickers, id)
	}
}

// FireTimers runs and clears every pending one-shot callback.
func (s *FakeScheduler) FireTimers() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.timers))
	for _, fn := range s.timers {
		fns = append(fns, fn)
	}
	s.timers = make(map[int]func())
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Tick runs every repeating callback once.
func (s *FakeScheduler) Tick() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.tickers))
	for _, fn := range s.tickers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// PendingTimers reports how many one-shot callbacks are armed.
func (s *FakeScheduler) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
