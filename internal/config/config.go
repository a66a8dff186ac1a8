// Package config handles application configuration and paths.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aayushdutt/mcinstall/internal/api"
	"github.com/aayushdutt/mcinstall/internal/assets"
	"github.com/aayushdutt/mcinstall/internal/core"
)

// Environment overrides
const (
	EnvRoot     = "MCINSTALL_ROOT"
	EnvPlatform = "MCINSTALL_PLATFORM"
	EnvWorkers  = "MCINSTALL_WORKERS"
	EnvLogLevel = "MCINSTALL_LOG_LEVEL"
)

// Duration is a time.Duration written as a string ("30s") in JSON
type Duration time.Duration

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler. Plain numbers are seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var secs float64
		if numErr := json.Unmarshal(data, &secs); numErr != nil {
			return fmt.Errorf("invalid duration %s", data)
		}
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the application configuration
type Config struct {
	// Paths
	DataDir     string `json:"dataDir"`
	InstallRoot string `json:"installRoot"`

	// Target
	Platform string `json:"platform"` // Empty detects the running OS

	// Remote
	ManifestURL  string   `json:"manifestURL"`
	ResourcesURL string   `json:"resourcesURL"`
	ManifestTTL  Duration `json:"manifestTTL"`

	// Transfer
	Workers           int      `json:"workers"`
	HTTPTimeout       Duration `json:"httpTimeout"`
	RetryMax          int      `json:"retryMax"`
	RequestsPerSecond float64  `json:"requestsPerSecond"`

	LogLevel string `json:"logLevel"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	dataDir := getDefaultDataDir()
	return &Config{
		DataDir:      dataDir,
		InstallRoot:  filepath.Join(dataDir, "minecraft"),
		ManifestURL:  api.DefaultManifestURL,
		ResourcesURL: assets.DefaultResourcesURL,
		ManifestTTL:  Duration(5 * time.Minute),
		Workers:      8,
		HTTPTimeout:  Duration(5 * time.Minute),
		RetryMax:     3,
		LogLevel:     "info",
	}
}

// Load reads config from the data directory and applies environment
// overrides.
func Load() (*Config, error) {
	return LoadFile(filepath.Join(getDefaultDataDir(), "config.json"))
}

// LoadFile reads config from path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvRoot); v != "" {
		c.InstallRoot = v
	}
	if v := os.Getenv(EnvPlatform); v != "" {
		c.Platform = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the config for values the installer cannot use
func (c *Config) Validate() error {
	var errs []error
	if c.InstallRoot == "" {
		errs = append(errs, errors.New("installRoot is empty"))
	}
	if c.Platform != "" {
		if _, err := core.ParsePlatform(c.Platform); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.RetryMax < 0 {
		errs = append(errs, fmt.Errorf("retryMax must not be negative, got %d", c.RetryMax))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requestsPerSecond must not be negative"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("logLevel: %w", err))
	}
	return errors.Join(errs...)
}

// TargetPlatform returns the configured platform or the running one
func (c *Config) TargetPlatform() core.Platform {
	if p, err := core.ParsePlatform(c.Platform); err == nil {
		return p
	}
	return core.CurrentPlatform()
}

// Level returns the configured log level, info when unparsable
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Save writes config to disk
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	configPath := filepath.Join(c.DataDir, "config.json")
	return os.WriteFile(configPath, data, 0644)
}

// EnsureDirs creates the install root and its top-level layout
func (c *Config) EnsureDirs() error {
	dirs := []string{
		filepath.Join(c.InstallRoot, "versions"),
		filepath.Join(c.InstallRoot, "libraries"),
		filepath.Join(c.InstallRoot, "assets", "indexes"),
		filepath.Join(c.InstallRoot, "assets", "objects"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating install root: %w", err)
		}
	}
	return nil
}

func getDefaultDataDir() string {
	// Check for portable mode first
	exe, _ := os.Executable()
	portablePath := filepath.Join(filepath.Dir(exe), "data")
	if _, err := os.Stat(portablePath); err == nil {
		return portablePath
	}

	// Use XDG/platform-specific directories
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mcinstall")
	}

	home, _ := os.UserHomeDir()
	switch {
	case os.Getenv("APPDATA") != "": // Windows
		return filepath.Join(os.Getenv("APPDATA"), "mcinstall")
	default: // Linux/macOS
		return filepath.Join(home, ".local", "share", "mcinstall")
	}
}
