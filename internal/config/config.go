package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Source describes the remote menu listing.
type Source struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Server contains HTTP listener configuration.
type Server struct {
	Bind string `toml:"bind"`
	// VideoRateLimit caps /video requests per client IP per minute. Zero disables the limit.
	VideoRateLimit int `toml:"video_rate_limit"`
}

// Storage selects the backend for the day-keyed menu store.
type Storage struct {
	Backend string `toml:"backend"`
}

// Render contains configuration for the external rendering engine.
type Render struct {
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	WorkDir        string   `toml:"work_dir"`
	Composition    string   `toml:"composition"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	WarmOnStart    bool     `toml:"warm_on_start"`
}

// Scheduler contains configuration for the daily refresh job.
type Scheduler struct {
	Enabled  bool   `toml:"enabled"`
	Cron     string `toml:"cron"`
	Timezone string `toml:"timezone"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RenderComplete bool   `toml:"render_complete"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ruokalista.
//
// Configuration sections by subsystem:
//   - Source: remote menu page and fetch limits
//   - Paths: cache output and log directories
//   - Server: HTTP listener
//   - Storage: backend for the cached menu data
//   - Render: external rendering engine command
//   - Scheduler: daily refresh time and time zone
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Source        Source        `toml:"source"`
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Storage       Storage       `toml:"storage"`
	Render        Render        `toml:"render"`
	Scheduler     Scheduler     `toml:"scheduler"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`

	location *time.Location
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ruokalista/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ruokalista.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.FramesDir()} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Location returns the scheduler time zone. Every Day Key is computed in this zone.
func (c *Config) Location() *time.Location {
	if c == nil || c.location == nil {
		if loc, err := time.LoadLocation(defaultTimezone); err == nil {
			return loc
		}
		return time.Local
	}
	return c.location
}

// FetchTimeout returns the bounded timeout for one scrape.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// RenderTimeout returns the bounded timeout for one engine invocation.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}

// FramesDir is the fixed working directory the rendering engine writes intermediate frames to.
func (c *Config) FramesDir() string {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.OutputDir, "frames")
}

// DataDir holds the persisted menu entries for the file and badger backends.
func (c *Config) DataDir() string {
	return filepath.Join(c.Paths.OutputDir, "data")
}

// LockPath is the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.OutputDir, "ruokalista.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
