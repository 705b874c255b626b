package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWithoutSyncFile(t *testing.T) {
	cfg, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.SheetID != "" || cfg.ScriptURL != "" {
		t.Errorf("expected no sync target, got %+v", cfg)
	}
}

func TestLoadSyncFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `sheet_id: 1abcDEF
tasks_tab: Board
poll_interval: 30s
debounce: 2s
state_path: /tmp/elsewhere.json
`
	if err := os.WriteFile(filepath.Join(dir, SyncFile), []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.SheetID != "1abcDEF" {
		t.Errorf("SheetID = %q", cfg.SheetID)
	}
	if cfg.TasksTabName() != "Board" {
		t.Errorf("tasks tab = %q", cfg.TasksTabName())
	}
	if cfg.GoalsTabName() != DefaultGoalsTab {
		t.Errorf("goals tab = %q", cfg.GoalsTabName())
	}
	if cfg.PollEvery() != 30*time.Second {
		t.Errorf("poll interval = %v", cfg.PollEvery())
	}
	if cfg.DebounceAfter() != 2*time.Second {
		t.Errorf("debounce = %v", cfg.DebounceAfter())
	}
	if cfg.LocalStatePath() != "/tmp/elsewhere.json" {
		t.Errorf("state path = %q", cfg.LocalStatePath())
	}
}

func TestInvalidSyncFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SyncFile), []byte("\t bad yaml: ["), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Error("expected error for invalid sync.yaml")
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TasksTabName() != DefaultTasksTab || cfg.GoalsTabName() != DefaultGoalsTab {
		t.Errorf("tab defaults = %q/%q", cfg.TasksTabName(), cfg.GoalsTabName())
	}
	if cfg.PollEvery() != DefaultPollInterval {
		t.Errorf("poll default = %v", cfg.PollEvery())
	}
	if cfg.DebounceAfter() != DefaultDebounce {
		t.Errorf("debounce default = %v", cfg.DebounceAfter())
	}
	if cfg.LocalStatePath() != filepath.Join(cfg.Dir, StateFile) {
		t.Errorf("state path = %q", cfg.LocalStatePath())
	}
}

func TestSaveSyncFileRoundTrip(t *testing.T) {
	cfg, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg.ScriptURL = "https://script.example.com/exec"
	cfg.Debug = true // must not round-trip

	if err := cfg.SaveSyncFile(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := New(cfg.Dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.ScriptURL != cfg.ScriptURL {
		t.Errorf("script URL = %q", loaded.ScriptURL)
	}
	if loaded.Debug {
		t.Error("runtime flag leaked into sync.yaml")
	}
}

func TestTokenLifecycle(t *testing.T) {
	cfg, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HasToken() {
		t.Error("token reported before one exists")
	}
	if err := os.WriteFile(cfg.TokenPath(), []byte(`{"access_token":"x"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if !cfg.HasToken() {
		t.Error("token not detected")
	}
	if err := cfg.RemoveToken(); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if cfg.HasToken() {
		t.Error("token still reported after removal")
	}
}

func TestDefaultConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")
	if got := DefaultConfigDir(); got != filepath.Join("/custom/xdg", AppName) {
		t.Errorf("config dir = %q", got)
	}
}
