package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"tasksheet/internal/commands"
	"tasksheet/internal/config"
	"tasksheet/internal/exitcode"
	"tasksheet/internal/model"
	"tasksheet/internal/syncer"
	"tasksheet/internal/testutil"
	"tasksheet/internal/transport"
)

func fakeFactory(tr *testutil.FakeTransport) EngineFactory {
	return func(ctx context.Context, cfg *config.Config) (*syncer.Syncer, error) {
		return syncer.New(syncer.Options{
			Transport: tr,
			Method:    syncer.MethodScript,
			Store:     testutil.NewMemStore(model.Snapshot{}),
			Scheduler: testutil.NewFakeScheduler(),
		}), nil
	}
}

func run(t *testing.T, factory EngineFactory, args ...string) (int, string, string) {
	t.Helper()
	d := NewDispatcher(commands.DefaultRegistry, factory)
	var out, errOut bytes.Buffer
	code := d.Run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := run(t, nil, "--config", t.TempDir()) // flag before command
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "unknown command") {
		t.Errorf("stderr = %q", errOut)
	}

	code, _, errOut = run(t, nil, "frobnicate")
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "unknown command: frobnicate") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestNoArgsRunsStatus(t *testing.T) {
	// status needs no engine, so a nil factory suffices; the default
	// config dir must not pick up real user settings.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	d := NewDispatcher(commands.DefaultRegistry, nil)
	var out, errOut bytes.Buffer
	code := d.Run(context.Background(), nil, &out, &errOut)
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, errOut.String())
	}
	if !strings.Contains(out.String(), "method:") {
		t.Errorf("output = %q", out.String())
	}
}

func TestUnknownFlag(t *testing.T) {
	code, _, errOut := run(t, nil, "version", "--bogus")
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "unknown flag: bogus") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestFlagNeedsArgument(t *testing.T) {
	code, _, errOut := run(t, nil, "version", "--config")
	if code != exitcode.UserError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "flag needs an argument") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestVersionThroughDispatcher(t *testing.T) {
	code, out, _ := run(t, nil, "version")
	if code != exitcode.Success {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "tasksheet ") {
		t.Errorf("output = %q", out)
	}
}

func TestEngineCommandThroughDispatcher(t *testing.T) {
	tr := testutil.NewFakeTransport()
	code, out, errOut := run(t, fakeFactory(tr), "check", "--config", t.TempDir())
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, errOut)
	}
	if !strings.Contains(out, "ok (script-proxy)") {
		t.Errorf("output = %q", out)
	}
}

func TestAuthRequiredFromFactory(t *testing.T) {
	factory := func(ctx context.Context, cfg *config.Config) (*syncer.Syncer, error) {
		return nil, transport.ErrAuthRequired
	}
	code, _, errOut := run(t, factory, "check", "--config", t.TempDir())
	if code != exitcode.AuthError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "not signed in") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestQuietFlagReachesCommand(t *testing.T) {
	tr := testutil.NewFakeTransport()
	code, out, _ := run(t, fakeFactory(tr), "check", "--quiet", "--config", t.TempDir())
	if code != exitcode.Success {
		t.Fatalf("exit code = %d", code)
	}
	if out != "" {
		t.Errorf("quiet run produced output: %q", out)
	}
}

func TestPushAliasDispatches(t *testing.T) {
	tr := testutil.NewFakeTransport()
	code, _, errOut := run(t, fakeFactory(tr), "push", "--quiet", "--config", t.TempDir())
	if code != exitcode.Success {
		t.Fatalf("exit code = %d, stderr = %q", code, errOut)
	}
	if tr.PullCount != 1 || tr.PushCount != 1 {
		t.Errorf("pull=%d push=%d, want 1/1 (push reconciles first)", tr.PullCount, tr.PushCount)
	}
}
