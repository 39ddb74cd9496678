package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Daemon contains timing configuration for the background process.
type Daemon struct {
	// WaitBeforeDelete is the debounce window in seconds between detection
	// and action. Must be positive.
	WaitBeforeDelete int `toml:"wait_before_delete"`
	// ScanInterval is the seconds between full directory sweeps.
	ScanInterval int `toml:"scan_interval"`
	// ProcessInterval is the seconds between pending-delete processor ticks.
	ProcessInterval int `toml:"process_interval"`
}

// Sync contains configuration for the sync-status oracle polling.
type Sync struct {
	PollInterval int `toml:"poll_interval"`
	MaxWait      int `toml:"max_wait"`
}

// Recovery contains configuration for the retained trash area.
type Recovery struct {
	Enabled       bool   `toml:"enabled"`
	Directory     string `toml:"directory"`
	RetentionDays int    `toml:"retention_days"`
}

// Modules contains detection module configuration.
type Modules struct {
	// Disabled lists module names excluded from the registry.
	Disabled []string `toml:"disabled"`
	// ConflictPattern overrides the conflict filename regex when non-empty.
	ConflictPattern string `toml:"conflict_pattern"`
	// ExtraCachePatterns adds user cache-directory names to the built-in set.
	ExtraCachePatterns []string `toml:"extra_cache_patterns"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format    string `toml:"format"`
	Level     string `toml:"level"`
	Directory string `toml:"directory"`
}

// Config encapsulates all configuration values for driftclean.
//
// Sections by subsystem:
//   - WatchDirectories: roots monitored for cleanup targets
//   - Daemon: debounce window and timer intervals
//   - Sync: sync-status oracle polling bounds
//   - Recovery: trash directory and retention
//   - Modules: detection module enablement and patterns
//   - Logging: log format, level, and directory
type Config struct {
	WatchDirectories []string `toml:"watch_directories"`
	Daemon           Daemon   `toml:"daemon"`
	Sync             Sync     `toml:"sync"`
	Recovery         Recovery `toml:"recovery"`
	Modules          Modules  `toml:"modules"`
	Logging          Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/driftclean/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third whether the file existed.
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
		if _, err := os.Stat(expanded); err != nil {
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
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories daemon operation requires.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Logging.Directory}
	if c.Recovery.Enabled {
		dirs = append(dirs, c.Recovery.Directory)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DisabledModules returns the disabled module names as a lookup set.
func (c *Config) DisabledModules() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Modules.Disabled))
	for _, name := range c.Modules.Disabled {
		trimmed := strings.TrimSpace(name)
		if trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
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
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
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
