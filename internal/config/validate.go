package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Validate ensures the configuration is usable. Interval violations are
// fatal: a non-positive debounce or scan interval would spin the daemon loop.
func (c *Config) Validate() error {
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateRecovery(); err != nil {
		return err
	}
	if err := c.validateModules(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDaemon() error {
	if c.Daemon.WaitBeforeDelete <= 0 {
		return fmt.Errorf("daemon.wait_before_delete must be positive, got %d", c.Daemon.WaitBeforeDelete)
	}
	if c.Daemon.ScanInterval <= 0 {
		return fmt.Errorf("daemon.scan_interval must be positive, got %d", c.Daemon.ScanInterval)
	}
	if c.Daemon.ProcessInterval <= 0 {
		return fmt.Errorf("daemon.process_interval must be positive, got %d", c.Daemon.ProcessInterval)
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.PollInterval < 1 {
		return fmt.Errorf("sync.poll_interval must be at least 1 second, got %d", c.Sync.PollInterval)
	}
	if c.Sync.MaxWait < 0 {
		return fmt.Errorf("sync.max_wait must not be negative, got %d", c.Sync.MaxWait)
	}
	return nil
}

func (c *Config) validateRecovery() error {
	if c.Recovery.RetentionDays < 0 {
		return fmt.Errorf("recovery.retention_days must not be negative, got %d", c.Recovery.RetentionDays)
	}
	if c.Recovery.Enabled && strings.TrimSpace(c.Recovery.Directory) == "" {
		return fmt.Errorf("recovery.directory is required when recovery is enabled")
	}
	return nil
}

func (c *Config) validateModules() error {
	if pattern := strings.TrimSpace(c.Modules.ConflictPattern); pattern != "" {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("modules.conflict_pattern: %w", err)
		}
		if compiled.NumSubexp() < 2 {
			return fmt.Errorf("modules.conflict_pattern must capture the base name and the conflict number, got %d capture group(s)", compiled.NumSubexp())
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
