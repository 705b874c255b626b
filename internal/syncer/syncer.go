// Package syncer owns the push/pull state machine: initial pull, gated
// and debounced pushes, background polling, echo suppression, and the
// sync session lifecycle.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tasksheet/internal/merge"
	"tasksheet/internal/model"
	"tasksheet/internal/store"
	"tasksheet/internal/transport"
)

// ErrPushGated is returned when a push is refused because no successful
// pull has happened for the current configuration yet. Auto-pushes log
// it and move on; it exists so manual pushes can explain themselves.
var ErrPushGated = errors.New("push refused: initial pull not complete")

// Default engine timings.
const (
	defaultDebounce = 1 * time.Second
	defaultPoll     = 15 * time.Second

	// defaultSettle delays the initial pull briefly so local storage
	// can hydrate before the first reconciliation.
	defaultSettle = 500 * time.Millisecond
)

// Options configures a Syncer.
type Options struct {
	// Transport is the active transport, nil when Method is MethodNone.
	Transport transport.Transport
	Method    Method

	Store store.Store

	// Scheduler defaults to the wall-clock scheduler. Its callbacks
	// must run asynchronously, never inline from After/Every.
	Scheduler Scheduler
	Logger    *slog.Logger

	Debounce     time.Duration
	PollInterval time.Duration
	SettleDelay  time.Duration
}

// Syncer sequences all remote traffic. opMu is a hard guard around the
// push/pull critical section: at most one network operation is in
// flight, and an operation started while another is outstanding waits
// rather than interleaving (polling passes skip instead of waiting).
type Syncer struct {
	st       store.Store
	sched    Scheduler
	logger   *slog.Logger
	debounce time.Duration
	poll     time.Duration
	settle   time.Duration

	opMu sync.Mutex

	mu sync.Mutex
	tr transport.Transport
	// gen identifies the current configuration. A pull captures it at
	// start; results arriving under an older gen are discarded, so an
	// in-flight pull against a replaced target can never complete the
	// initial reconciliation for the new one.
	gen            int
	session        Session
	suppressNext   bool
	ctx            context.Context
	cancelDebounce CancelFunc
	cancelPoll     CancelFunc
	cancelSettle   CancelFunc
}

// New creates a Syncer. Timers do not run until Start.
func New(opts Options) *Syncer {
	s := &Syncer{
		tr:       opts.Transport,
		st:       opts.Store,
		sched:    opts.Scheduler,
		logger:   opts.Logger,
		debounce: opts.Debounce,
		poll:     opts.PollInterval,
		settle:   opts.SettleDelay,
	}
	if s.sched == nil {
		s.sched = NewScheduler()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.debounce <= 0 {
		s.debounce = defaultDebounce
	}
	if s.poll <= 0 {
		s.poll = defaultPoll
	}
	if s.settle <= 0 {
		s.settle = defaultSettle
	}
	method := opts.Method
	if s.tr == nil {
		method = MethodNone
	}
	s.session.reset(method)
	return s
}

// Session returns a copy of the current session state.
func (s *Syncer) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Start arms the initial pull (after the settle delay) and the polling
// timer. With no target configured the engine idles silently.
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx = ctx
	if s.session.Method == MethodNone {
		s.session.Status = StatusIdle
		s.logger.Debug("no sync target configured, engine idle")
		return
	}
	s.armTimersLocked()
}

func (s *Syncer) armTimersLocked() {
	s.cancelSettle = s.sched.After(s.settle, s.initialPullPass)
	s.cancelPoll = s.sched.Every(s.poll, s.pollPass)
}

// Stop cancels all pending timers. In-flight network calls are not
// interrupted; their results are still applied (merge is idempotent
// with respect to timestamp comparison, so a stale apply cannot
// corrupt).
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimersLocked()
}

func (s *Syncer) cancelTimersLocked() {
	for _, cancel := range []CancelFunc{s.cancelSettle, s.cancelDebounce, s.cancelPoll} {
		if cancel != nil {
			cancel()
		}
	}
	s.cancelSettle, s.cancelDebounce, s.cancelPoll = nil, nil, nil
}

// Reconfigure swaps the transport/target. The session resets: a fresh
// reconciliation is forced before any push is permitted, pending
// debounce timers are canceled, and with no target the engine idles.
func (s *Syncer) Reconfigure(tr transport.Transport, method Method) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimersLocked()
	if tr == nil {
		method = MethodNone
	}
	s.gen++
	s.tr = tr
	s.suppressNext = false
	s.session.reset(method)

	s.logger.Info("sync target reconfigured", "method", string(method))

	if s.ctx != nil && method != MethodNone {
		s.armTimersLocked()
	}
}

// NotifyLocalChange is the single change-observation entry point. Both
// local edits and remote-origin applies route through it; the one-shot
// suppression flag is what keeps a pulled update from re-triggering a
// push (the echo loop).
func (s *Syncer) NotifyLocalChange() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.suppressNext {
		s.suppressNext = false
		s.logger.Debug("suppressed echo of remote-origin update")
		return
	}
	if s.session.Method == MethodNone {
		return
	}

	s.session.Dirty = true
	s.restartDebounceLocked()
}

func (s *Syncer) restartDebounceLocked() {
	if s.cancelDebounce != nil {
		s.cancelDebounce()
	}
	s.cancelDebounce = s.sched.After(s.debounce, s.debouncedPush)
}

// PullOnce performs a manual pull (non-polling pass). Failures surface.
func (s *Syncer) PullOnce(ctx context.Context) error {
	return s.runPull(ctx, false)
}

// PushOnce performs a manual push, bypassing the debounce timer but
// respecting the push gate.
func (s *Syncer) PushOnce(ctx context.Context) error {
	return s.runPush(ctx)
}

// SyncNow pulls, reconciles, and pushes the reconciled state back.
func (s *Syncer) SyncNow(ctx context.Context) error {
	if err := s.runPull(ctx, false); err != nil {
		return err
	}
	return s.runPush(ctx)
}

// Refresh is the foreground/focus hook: an out-of-band pull under the
// same guards as background polling. Failures are swallowed.
func (s *Syncer) Refresh(ctx context.Context) {
	if !s.pollAllowed() {
		return
	}
	if err := s.runPull(ctx, true); err != nil {
		s.logger.Warn("refresh pull failed", "error", err)
	}
}

func (s *Syncer) initialPullPass() {
	if err := s.runPull(s.opCtx(), false); err != nil {
		s.logger.Error("initial pull failed", "error", err)
	}
}

func (s *Syncer) pollPass() {
	if !s.pollAllowed() {
		return
	}
	if err := s.runPull(s.opCtx(), true); err != nil {
		// Transient network loss must not flap the UI; status was
		// restored by runPull.
		s.logger.Warn("polling pull failed", "error", err)
	}
}

// pollAllowed gates polling/focus passes: never while syncing, never
// with unpushed local changes, never before the initial reconciliation.
func (s *Syncer) pollAllowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Method != MethodNone &&
		s.session.InitialPullComplete &&
		!s.session.Dirty &&
		s.session.Status != StatusSyncing
}

func (s *Syncer) debouncedPush() {
	s.mu.Lock()
	dirty := s.session.Dirty
	s.mu.Unlock()
	if !dirty {
		return
	}
	err := s.runPush(s.opCtx())
	switch {
	case errors.Is(err, ErrPushGated):
		// Dirty stays set; the corrective push after the initial pull
		// picks it up.
	case err != nil:
		s.logger.Warn("auto-push failed, will retry next cycle", "error", err)
	}
}

func (s *Syncer) opCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

// runPull executes one pull pass: fetch, merge, apply. polling selects
// the steady-state variant: busy skips instead of waiting, failures
// restore the previous status instead of surfacing, and a local-wins
// outcome is not treated as needing repair.
func (s *Syncer) runPull(ctx context.Context, polling bool) error {
	if polling {
		if !s.opMu.TryLock() {
			return nil
		}
	} else {
		s.opMu.Lock()
	}
	defer s.opMu.Unlock()

	s.mu.Lock()
	tr := s.tr
	if tr == nil || s.session.Method == MethodNone {
		s.mu.Unlock()
		return transport.ErrNoTarget
	}
	gen := s.gen
	prevStatus := s.session.Status
	first := !s.session.InitialPullComplete
	s.session.Status = StatusSyncing
	s.mu.Unlock()

	fail := func(err error) error {
		s.mu.Lock()
		if s.gen == gen {
			if polling {
				s.session.Status = prevStatus
			} else {
				s.session.Status = StatusError
				s.session.LastError = err.Error()
			}
		}
		s.mu.Unlock()
		return err
	}

	// Remote schema init is a direct-API concern and only needed once
	// per configuration.
	if first {
		if init, ok := tr.(transport.Initializer); ok {
			if err := init.EnsureSchema(ctx); err != nil {
				return fail(err)
			}
		}
	}

	payload, err := tr.Pull(ctx)
	if err != nil {
		return fail(err)
	}

	snap, err := s.st.Load()
	if err != nil {
		return fail(err)
	}

	res := merge.Tasks(snap.Tasks, payload.Tasks, polling)
	goals, goalsChanged := merge.Goals(snap.Goals, payload.Goals)

	next := snap
	next.Tasks = res.Merged
	next.Goals = goals

	metaChanged := false
	if payload.Meta != nil {
		if settings, changed := merge.Settings(snap.Settings, payload.Meta.Settings); changed {
			next.Settings = settings
			metaChanged = true
		}
		if gam, changed := merge.Gamification(snap.Gamification, payload.Meta.Gamification); changed {
			next.Gamification = gam
			metaChanged = true
		}
	}

	if res.RemoteChanged || goalsChanged || metaChanged {
		// One-shot echo suppression: the change observation caused by
		// this apply must not mark the session dirty.
		s.mu.Lock()
		if s.gen != gen {
			// The target was reconfigured mid-pull; this merge belongs
			// to the old one.
			s.mu.Unlock()
			s.logger.Debug("discarding pull result from replaced target")
			return nil
		}
		s.suppressNext = true
		s.mu.Unlock()

		if err := s.st.Save(next); err != nil {
			s.mu.Lock()
			s.suppressNext = false
			s.mu.Unlock()
			return fail(err)
		}
		s.logger.Info("applied remote changes",
			"tasks", len(next.Tasks),
			"goals", len(next.Goals),
			"polling", polling,
		)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("discarding pull result from replaced target")
		return nil
	}
	s.session.InitialPullComplete = true
	s.session.Status = StatusSuccess
	s.session.LastSync = time.Now()
	s.session.LastError = ""
	if res.LocalIsStale && !polling {
		// Local data is authoritative but stale on the remote; schedule
		// a corrective push.
		s.session.Dirty = true
	}
	if s.session.Dirty && s.ctx != nil {
		s.restartDebounceLocked()
	}
	s.mu.Unlock()

	if res.LocalIsStale && !polling {
		s.logger.Info("remote store is behind local state, repair push scheduled")
	}

	return nil
}

// runPush executes one push pass. The gate holds regardless of caller:
// no transport call happens before the first successful pull for the
// current configuration.
func (s *Syncer) runPush(ctx context.Context) error {
	s.mu.Lock()
	tr := s.tr
	if tr == nil || s.session.Method == MethodNone {
		s.mu.Unlock()
		return transport.ErrNoTarget
	}
	if !s.session.InitialPullComplete {
		s.mu.Unlock()
		s.logger.Warn("push refused: initial pull not complete")
		return ErrPushGated
	}
	s.mu.Unlock()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.session.Status = StatusSyncing
	s.mu.Unlock()

	snap, err := s.st.Load()
	if err != nil {
		return s.pushFailed(err)
	}

	payload := &transport.Payload{Tasks: snap.Tasks, Goals: snap.Goals}
	if snap.Settings != nil || len(snap.Gamification) > 0 {
		payload.Meta = &model.Metadata{
			Settings:     snap.Settings,
			Gamification: snap.Gamification,
		}
	}

	if err := tr.Push(ctx, payload); err != nil {
		return s.pushFailed(err)
	}

	s.mu.Lock()
	s.session.Dirty = false
	s.session.Status = StatusSuccess
	s.session.LastSync = time.Now()
	s.session.LastError = ""
	s.mu.Unlock()

	s.logger.Info("pushed local state",
		"tasks", len(snap.Tasks),
		"goals", len(snap.Goals),
	)
	return nil
}

// pushFailed records a push failure. Dirty stays set so the next
// debounce cycle retries.
func (s *Syncer) pushFailed(err error) error {
	s.mu.Lock()
	s.session.Status = StatusError
	s.session.LastError = err.Error()
	s.mu.Unlock()
	return err
}
