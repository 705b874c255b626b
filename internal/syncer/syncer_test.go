package syncer_test

import (
	"context"
	"errors"
	"testing"

	"tasksheet/internal/model"
	"tasksheet/internal/syncer"
	"tasksheet/internal/testutil"
	"tasksheet/internal/transport"
)

func newEngine(tr *testutil.FakeTransport, st *testutil.MemStore, sched *testutil.FakeScheduler) *syncer.Syncer {
	return syncer.New(syncer.Options{
		Transport: tr,
		Method:    syncer.MethodSheets,
		Store:     st,
		Scheduler: sched,
	})
}

func TestPushGatedBeforeInitialPull(t *testing.T) {
	tr := testutil.NewFakeTransport()
	eng := newEngine(tr, testutil.NewMemStore(model.Snapshot{}), testutil.NewFakeScheduler())

	err := eng.PushOnce(context.Background())
	if !errors.Is(err, syncer.ErrPushGated) {
		t.Fatalf("expected ErrPushGated, got %v", err)
	}
	if tr.PushCount != 0 {
		t.Errorf("gated push still reached the transport (%d calls)", tr.PushCount)
	}
}

func TestInitialPullOnStart(t *testing.T) {
	tr := testutil.NewFakeTransport()
	tr.SetRemote([]model.Task{{ID: "a", Title: "From remote", LastModified: 5000}}, nil, nil)
	st := testutil.NewMemStore(model.Snapshot{})
	sched := testutil.NewFakeScheduler()
	eng := newEngine(tr, st, sched)

	eng.Start(context.Background())
	defer eng.Stop()

	if s := eng.Session(); s.InitialPullComplete {
		t.Fatal("pull ran before the settle timer fired")
	}

	sched.FireTimers()

	s := eng.Session()
	if !s.InitialPullComplete {
		t.Error("InitialPullComplete not set")
	}
	if s.Status != syncer.StatusSuccess {
		t.Errorf("status = %q", s.Status)
	}
	if tr.SchemaCount != 1 {
		t.Errorf("EnsureSchema called %d times, want 1", tr.SchemaCount)
	}
	snap, _ := st.Load()
	if len(snap.Tasks) != 1 || snap.Tasks[0].Title != "From remote" {
		t.Errorf("remote task not applied: %+v", snap.Tasks)
	}
}

func TestRemoteApplyDoesNotEcho(t *testing.T) {
	tr := testutil.NewFakeTransport()
	tr.SetRemote([]model.Task{{ID: "a", Title: "Remote edit", LastModified: 5000}}, nil, nil)
	st := testutil.NewMemStore(model.Snapshot{})
	sched := testutil.NewFakeScheduler()
	eng := newEngine(tr, st, sched)

	// The app observes its own storage; an engine apply triggers the
	// same observation a user edit would.
	st.OnSave = eng.NotifyLocalChange

	if err := eng.PullOnce(context.Background()); err != nil {
		t.Fatalf("pull failed: %v", err)
	}

	if s := eng.Session(); s.Dirty {
		t.Error("remote-origin apply marked the session dirty")
	}
	if n := sched.PendingTimers(); n != 0 {
		t.Errorf("%d debounce timers armed by an echo", n)
	}

	// The suppression is one-shot: a real edit right after still counts.
	eng.NotifyLocalChange()
	if s := eng.Session(); !s.Dirty {
		t.Error("real edit after the apply was swallowed")
	}
}

func TestDebouncedPushAfterLocalChange(t *testing.T) {
	tr := testutil.NewFakeTransport()
	st := testutil.NewMemStore(model.Snapshot{
		Tasks: []model.Task{{ID: "a", Title: "Local task", LastModified: 1000}},
	})
	sched := testutil.NewFakeScheduler()
	eng := newEngine(tr, st, sched)

	if err := eng.PullOnce(context.Background()); err != nil {
		t.Fatalf("pull failed: %v", err)
	}

	eng.NotifyLocalChange()
	eng.NotifyLocalChange()
	eng.NotifyLocalChange()

	if n := sched.PendingTimers(); n != 1 {
		t.Fatalf("%d debounce timers armed, want 1 (coalesced)", n)
	}
	if tr.PushCount != 0 {
		t.Fatal("push ran before the debounce fired")
	}

	sched.FireTimers()

	if tr.PushCount != 1 {
		t.Errorf("push count = %d, want 1", tr.PushCount)
	}
	if s := eng.Session(); s.Dirty {
		t.Error("dirty flag survived a successful push")
	}
	if len(tr.Pushed) != 1 || len(tr.Pushed[0].Tasks) != 1 {
		t.Fatalf("pushed payload = %+v", tr.Pushed)
	}
	if tr.Pushed[0].Tasks[0].Title != "Local task" {
		t.Errorf("pushed wrong task: %+v", tr.Pushed[0].Tasks[0])
	}
}

func TestCorrectivePushWhenRemoteIsStale(t *testing.T) {
	tr := testutil.NewFakeTransport()
	tr.SetRemote([]model.Task{{ID: "a", Title: "Old remote copy", LastModified: 1000}}, nil, nil)
	st := testutil.NewMemStore(model.Snapshot{
		Tasks: []model.Task{{ID: "a", Title: "Newer local copy", LastModified: 100000}},
	})
	sched := testutil.NewFakeScheduler()
	eng := newEngine(tr, st, sched)

	eng.Start(context.Background())
	defer eng.Stop()

	sched.FireTimers() // settle -> initial pull

	s := eng.Session()
	if !s.InitialPullComplete {
		t.Fatal("initial pull did not complete")
	}
	if !s.Dirty {
		t.Fatal("stale remote did not mark the session dirty")
	}

	sched.FireTimers() // debounce -> repair push

	if tr.PushCount != 1 {
		t.Fatalf("push count = %d, want 1", tr.PushCount)
	}
	remote := tr.Remote()
	if remote.Tasks[0].Title != "Newer local copy" {
		t.Errorf("remote not repaired: %+v", remote.Tasks[0])
	}
	if eng.Session().Dirty {
		t.Error("dirty flag survived the repair push")
	}
}

func TestPollingFailureKeepsStatus(t *testing.T) {
	tr := testutil.NewFakeTransport()
	st := testutil.NewMemStore(model.Snapshot{})
	sched := testutil.NewFakeScheduler()
	eng := newEngine(tr, st, sched)

	eng.Start(context.Background())
	defer eng.Stop()
	sched.FireTimers()

	tr.PullErr = errors.New("connection reset")
	sched.Tick()

	s := eng.Session()
	if s.Status != syncer.StatusSuccess {
		t.Errorf("transient polling failure flipped status to %q", s.Status)
	}
	if s.LastError != "" {
		t.Errorf("polling failure recorded: %q", s.LastError)
	}

	// A manual pull with the same failure does surface it.
	if err := eng.PullOnce(context.Background()); err == nil {
		t.Fatal("manual pull swallowed the error")
	}
	s = eng.Session()
	if s.Status != syncer.StatusError || s.LastError == "" {
		t.Errorf("manual failure not recorded: status=%q err=%q", s.Status, s.LastError)
	}
}

func TestPollingSkippedWhileDirty(t *testing.T) {
	tr := testutil.NewFakeTransport()
	st := testutil.NewMemStore(model.Snapshot{})
	sched := testutil.NewFakeScheduler()
	eng := newEngine(tr, st, sched)

	eng.Start(context.Background())
	defer eng.Stop()
	sched.FireTimers()

	eng.NotifyLocalChange()
	before := tr.PullCount

	sched.Tick()
	if tr.PullCount != before {
		t.Error("poll ran with unpushed local changes")
	}
}

func TestPollingSkippedBeforeInitialPull(t *testing.T) {
	tr := testutil.NewFakeTransport()
	eng := newEngine(tr, testutil.NewMemStore(model.Snapshot{}), testutil.NewFakeScheduler())

	eng.Refresh(context.Background())
	if tr.PullCount != 0 {
		t.Error("refresh pulled before the initial reconciliation")
	}
}

func TestSyncNowPullsThenPushes(t *testing.T) {
	tr := testutil.NewFakeTransport()
	tr.SetRemote([]model.Task{{ID: "b", Title: "Remote only", LastModified: 1000}}, nil, nil)
	st := testutil.NewMemStore(model.Snapshot{
		Tasks: []model.Task{{ID: "a", Title: "Local only", LastModified: 1000}},
	})
	eng := newEngine(tr, st, testutil.NewFakeScheduler())

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if tr.PullCount != 1 || tr.PushCount != 1 {
		t.Errorf("pull=%d push=%d, want 1/1", tr.PullCount, tr.PushCount)
	}
	remote := tr.Remote()
	if len(remote.Tasks) != 2 {
		t.Errorf("remote holds %d tasks after sync, want union of 2", len(remote.Tasks))
	}
}

func TestReconfigureResetsGate(t *testing.T) {
	tr := testutil.NewFakeTransport()
	eng := newEngine(tr, testutil.NewMemStore(model.Snapshot{}), testutil.NewFakeScheduler())

	if err := eng.PullOnce(context.Background()); err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	eng.NotifyLocalChange()

	next := testutil.NewFakeTransport()
	eng.Reconfigure(next, syncer.MethodScript)

	s := eng.Session()
	if s.Method != syncer.MethodScript {
		t.Errorf("method = %q", s.Method)
	}
	if s.InitialPullComplete || s.Dirty {
		t.Errorf("session not reset: %+v", s)
	}
	if err := eng.PushOnce(context.Background()); !errors.Is(err, syncer.ErrPushGated) {
		t.Errorf("push after reconfigure not gated: %v", err)
	}
	if next.PushCount != 0 {
		t.Error("gated push reached the new transport")
	}
}

func TestReconfigureMidPullKeepsGateClosed(t *testing.T) {
	old := testutil.NewFakeTransport()
	old.SetRemote([]model.Task{{ID: "a", Title: "Old target task", LastModified: 5000}}, nil, nil)
	st := testutil.NewMemStore(model.Snapshot{})
	eng := newEngine(old, st, testutil.NewFakeScheduler())

	// Swap targets while the pull against the old one is in flight.
	next := testutil.NewFakeTransport()
	old.OnPull = func() { eng.Reconfigure(next, syncer.MethodScript) }

	if err := eng.PullOnce(context.Background()); err != nil {
		t.Fatalf("pull failed: %v", err)
	}

	s := eng.Session()
	if s.InitialPullComplete {
		t.Error("stale pull completed the initial reconciliation for the new target")
	}
	if s.Status == syncer.StatusSuccess {
		t.Errorf("stale pull set status %q on the reset session", s.Status)
	}

	// The old target's dataset must not land in local state either.
	snap, _ := st.Load()
	if len(snap.Tasks) != 0 {
		t.Errorf("stale merge applied: %+v", snap.Tasks)
	}

	// The gate stays closed until the new target has been pulled.
	if err := eng.PushOnce(context.Background()); !errors.Is(err, syncer.ErrPushGated) {
		t.Errorf("push after mid-pull reconfigure not gated: %v", err)
	}
	if next.PushCount != 0 {
		t.Error("push reached the new target without any pull from it")
	}

	if err := eng.PullOnce(context.Background()); err != nil {
		t.Fatalf("pull from new target failed: %v", err)
	}
	if !eng.Session().InitialPullComplete {
		t.Error("fresh pull did not open the gate")
	}
}

func TestNoTargetIdles(t *testing.T) {
	eng := syncer.New(syncer.Options{
		Store:     testutil.NewMemStore(model.Snapshot{}),
		Scheduler: testutil.NewFakeScheduler(),
	})

	s := eng.Session()
	if s.Method != syncer.MethodNone {
		t.Errorf("method = %q", s.Method)
	}

	if err := eng.PullOnce(context.Background()); !errors.Is(err, transport.ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}

	eng.NotifyLocalChange()
	if eng.Session().Dirty {
		t.Error("dirty set with no target configured")
	}
}

func TestPullAppliesRemoteSettings(t *testing.T) {
	tr := testutil.NewFakeTransport()
	tr.SetRemote(nil, nil, &model.Metadata{
		Settings: model.Settings{"theme": "light"},
	})
	st := testutil.NewMemStore(model.Snapshot{
		Settings: model.Settings{"theme": "dark", "geminiApiKey": "local-secret"},
	})
	eng := newEngine(tr, st, testutil.NewFakeScheduler())

	if err := eng.PullOnce(context.Background()); err != nil {
		t.Fatalf("pull failed: %v", err)
	}

	snap, _ := st.Load()
	if snap.Settings["theme"] != "light" {
		t.Errorf("remote setting not applied: %v", snap.Settings["theme"])
	}
	if snap.Settings["geminiApiKey"] != "local-secret" {
		t.Error("local secret lost on settings merge")
	}
}

func TestPushIncludesMetadata(t *testing.T) {
	tr := testutil.NewFakeTransport()
	st := testutil.NewMemStore(model.Snapshot{
		Settings: model.Settings{"theme": "dark"},
	})
	eng := newEngine(tr, st, testutil.NewFakeScheduler())

	if err := eng.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(tr.Pushed) != 1 || tr.Pushed[0].Meta == nil {
		t.Fatalf("pushed payload missing metadata: %+v", tr.Pushed)
	}
	if tr.Pushed[0].Meta.Settings["theme"] != "dark" {
		t.Errorf("settings not pushed: %+v", tr.Pushed[0].Meta.Settings)
	}
}

func TestPushFailureKeepsDirty(t *testing.T) {
	tr := testutil.NewFakeTransport()
	st := testutil.NewMemStore(model.Snapshot{})
	sched := testutil.NewFakeScheduler()
	eng := newEngine(tr, st, sched)

	eng.Start(context.Background())
	defer eng.Stop()
	sched.FireTimers()

	tr.PushErr = errors.New("503 backend error")
	eng.NotifyLocalChange()
	sched.FireTimers()

	s := eng.Session()
	if !s.Dirty {
		t.Error("dirty flag cleared by a failed push")
	}
	if s.Status != syncer.StatusError {
		t.Errorf("status = %q", s.Status)
	}

	// Next cycle succeeds.
	tr.PushErr = nil
	eng.NotifyLocalChange()
	sched.FireTimers()
	if eng.Session().Dirty {
		t.Error("retry push did not clear dirty")
	}
}
