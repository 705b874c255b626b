// Package config handles the XDG configuration directory, credential
// file paths, and the sync settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "tasksheet"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// SyncFile is the sync settings filename.
	SyncFile = "sync.yaml"

	// StateFile is the local snapshot filename (under the config dir
	// unless overridden in sync.yaml).
	StateFile = "state.json"

	// DefaultTasksTab is the spreadsheet tab holding task rows.
	DefaultTasksTab = "Tasks"

	// DefaultGoalsTab is the optional spreadsheet tab holding goal rows.
	DefaultGoalsTab = "Goals"
)

// Default engine timings. Overridable per-field in sync.yaml; tests use
// a fake scheduler instead.
const (
	DefaultPollInterval = 15 * time.Second
	DefaultDebounce     = 1 * time.Second
)

// Config holds configuration paths and sync settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `yaml:"-"`

	// Debug enables debug logging.
	Debug bool `yaml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `yaml:"-"`

	// SheetID is the spreadsheet identifier for the direct-API
	// transport. Empty disables it.
	SheetID string `yaml:"sheet_id,omitempty"`

	// ScriptURL is the script-proxy endpoint. When set it takes
	// precedence over SheetID.
	ScriptURL string `yaml:"script_url,omitempty"`

	// TasksTab and GoalsTab name the spreadsheet tabs. Blank means the
	// defaults.
	TasksTab string `yaml:"tasks_tab,omitempty"`
	GoalsTab string `yaml:"goals_tab,omitempty"`

	// StatePath overrides where the local snapshot lives.
	StatePath string `yaml:"state_path,omitempty"`

	// PollInterval and Debounce override the engine timings.
	PollInterval Duration `yaml:"poll_interval,omitempty"`
	Debounce     Duration `yaml:"debounce,omitempty"`
}

// Duration is a time.Duration that reads "30s" style YAML values. Bare
// integers are taken as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration: %s", node.Value)
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// New creates a Config with the default or specified config directory
// and loads sync.yaml if present. A missing sync settings file is not
// an error; the engine simply has no target.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.loadSyncFile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) loadSyncFile() error {
	data, err := os.ReadFile(c.SyncPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", SyncFile, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid %s: %w", SyncFile, err)
	}
	return nil
}

// SaveSyncFile writes the sync settings back to sync.yaml.
func (c *Config) SaveSyncFile() error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", SyncFile, err)
	}
	return os.WriteFile(c.SyncPath(), data, 0600)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// SyncPath returns the path to the sync settings file.
func (c *Config) SyncPath() string {
	return filepath.Join(c.Dir, SyncFile)
}

// LocalStatePath returns where the local snapshot lives.
func (c *Config) LocalStatePath() string {
	if c.StatePath != "" {
		return c.StatePath
	}
	return filepath.Join(c.Dir, StateFile)
}

// TasksTabName returns the tasks tab, defaulting when unset.
func (c *Config) TasksTabName() string {
	if c.TasksTab != "" {
		return c.TasksTab
	}
	return DefaultTasksTab
}

// GoalsTabName returns the goals tab, defaulting when unset.
func (c *Config) GoalsTabName() string {
	if c.GoalsTab != "" {
		return c.GoalsTab
	}
	return DefaultGoalsTab
}

// PollEvery returns the polling interval, defaulting when unset.
func (c *Config) PollEvery() time.Duration {
	if c.PollInterval > 0 {
		return time.Duration(c.PollInterval)
	}
	return DefaultPollInterval
}

// DebounceAfter returns the push debounce window, defaulting when unset.
func (c *Config) DebounceAfter() time.Duration {
	if c.Debounce > 0 {
		return time.Duration(c.Debounce)
	}
	return DefaultDebounce
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists. This is the "signed in"
// signal the transport selection precedence consults.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
