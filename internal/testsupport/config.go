package testsupport

import (
	"path/filepath"
	"testing"

	"driftclean/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.WatchDirectories = []string{filepath.Join(base, "watched")}
	cfgVal.Recovery.Directory = filepath.Join(base, "trash")
	cfgVal.Logging.Directory = filepath.Join(base, "logs")
	cfgVal.Daemon.WaitBeforeDelete = 1
	cfgVal.Daemon.ScanInterval = 1
	cfgVal.Daemon.ProcessInterval = 1
	cfgVal.Sync.PollInterval = 1
	cfgVal.Sync.MaxWait = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWatchDirectories replaces the watch roots on the test config.
func WithWatchDirectories(dirs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.WatchDirectories = dirs
	}
}

// WithRecoveryDisabled turns off the trash store on the test config.
func WithRecoveryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Recovery.Enabled = false
	}
}

// WithDisabledModules marks module names disabled on the test config.
func WithDisabledModules(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Modules.Disabled = names
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Logging.Directory)
}
