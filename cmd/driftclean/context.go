package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"driftclean/internal/config"
	"driftclean/internal/detect"
	"driftclean/internal/logging"
	"driftclean/internal/recovery"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger from the loaded config. Commands
// that only print to stdout use logging.NewNop instead.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewForPaths(
			cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Directory)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) newRegistry(logger *slog.Logger) (*detect.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	registry, err := detect.NewRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build module registry: %w", err)
	}
	return registry, nil
}

// openStore opens the recovery store, or returns nil when recovery is
// disabled. Callers must Close a non-nil store.
func (c *commandContext) openStore(logger *slog.Logger) (*recovery.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Recovery.Enabled {
		return nil, nil
	}
	store, err := recovery.Open(cfg.Recovery.Directory, cfg.Recovery.RetentionDays, logger)
	if err != nil {
		return nil, fmt.Errorf("open recovery store: %w", err)
	}
	return store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
