package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	appName = "dman"

	// EnvPrefix prefixes every environment override, e.g. DMAN_BACKEND.
	EnvPrefix = "DMAN"

	urldropSocket = "urldrop"
	statusSocket  = "ipc"
)

// Settings holds all configuration options.
type Settings struct {
	// Download settings. Backend is wget, curl, aria2c, debug or empty for
	// auto. RetryInterval is in seconds. A FinishedHistory of 0 keeps
	// everything.
	DownloadsPath          string  `json:"downloads_path" envconfig:"DOWNLOADS_PATH"`
	MaxConcurrentDownloads int     `json:"max_concurrent_downloads" envconfig:"MAX_CONCURRENT"`
	Backend                string  `json:"backend" envconfig:"BACKEND"`
	RetryInterval          float64 `json:"retry_interval" envconfig:"RETRY_INTERVAL"`
	FinishedHistory        int     `json:"finished_history" envconfig:"FINISHED_HISTORY"`
	StopOnExit             bool    `json:"stop_on_exit" envconfig:"STOP_ON_EXIT"`

	// IPC settings
	RuntimeDir       string `json:"runtime_dir" envconfig:"RUNTIME_DIR"`
	MaxMessageLength int    `json:"max_message_length" envconfig:"MAX_MESSAGE_LENGTH"`

	// Logging
	Verbose bool `json:"verbose" envconfig:"VERBOSE"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		DownloadsPath:          filepath.Join(homeDir, "Downloads"),
		MaxConcurrentDownloads: 2,
		RetryInterval:          30,
		FinishedHistory:        100,
		StopOnExit:             true,
		MaxMessageLength:       64 * 1024,
	}
}

// DefaultPath returns the location of the settings file,
// $XDG_CONFIG_HOME/dman/config.json on Linux.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(dir, appName, "config.json")
}

// Load reads settings from a JSON file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return settings, nil
}

// ApplyEnv overrides settings from DMAN_* environment variables.
func (s *Settings) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, s); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

// Validate reports settings the daemon cannot run with.
func (s *Settings) Validate() error {
	if s.MaxConcurrentDownloads < 1 {
		return errors.New("max_concurrent_downloads must be at least 1")
	}
	if s.DownloadsPath == "" {
		return errors.New("downloads_path must be set")
	}
	if s.RetryInterval < 0 {
		return errors.New("retry_interval must not be negative")
	}
	if s.FinishedHistory < 0 {
		return errors.New("finished_history must not be negative")
	}
	return nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// RetryDuration returns RetryInterval as a duration.
func (s *Settings) RetryDuration() time.Duration {
	return time.Duration(s.RetryInterval * float64(time.Second))
}

// RuntimePath returns the directory holding the daemon's sockets. It is
// RuntimeDir when set, otherwise $XDG_RUNTIME_DIR/dman, falling back to a
// per-user directory under the system temp directory.
func (s *Settings) RuntimePath() string {
	if s.RuntimeDir != "" {
		return s.RuntimeDir
	}
	if base := os.Getenv("XDG_RUNTIME_DIR"); base != "" {
		return filepath.Join(base, appName)
	}
	return filepath.Join(os.TempDir(), appName+"-"+strconv.Itoa(os.Getuid()))
}

// UrldropSocket is the socket URLs are dropped into.
func (s *Settings) UrldropSocket() string {
	return filepath.Join(s.RuntimePath(), urldropSocket)
}

// StatusSocket is the socket serving the status API.
func (s *Settings) StatusSocket() string {
	return filepath.Join(s.RuntimePath(), statusSocket)
}
