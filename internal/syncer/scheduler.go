package syncer

import (
	"sync"
	"time"
)

// CancelFunc stops a scheduled callback. Safe to call more than once;
// calling it after the callback fired is a no-op.
type CancelFunc func()

// Scheduler abstracts timer scheduling so tests can drive the engine
// with a simulated clock instead of wall-clock waits.
type Scheduler interface {
	// After runs fn once after d.
	After(d time.Duration, fn func()) CancelFunc

	// Every runs fn repeatedly every d until canceled.
	Every(d time.Duration, fn func()) CancelFunc
}

// clockScheduler is the wall-clock Scheduler used outside tests.
type clockScheduler struct{}

// NewScheduler returns the wall-clock scheduler.
func NewScheduler() Scheduler { return clockScheduler{} }

func (clockScheduler) After(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

func (clockScheduler) Every(d time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
