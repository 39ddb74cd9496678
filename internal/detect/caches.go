package detect

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"driftclean/internal/config"
	"driftclean/internal/nosync"
)

// CachesModuleName identifies the ephemeral cache directory module.
const CachesModuleName = "ephemeral_caches"

// cachesModule flags regenerable cache directories that waste sync
// bandwidth. Detections are whole directories and are deleted outright.
type cachesModule struct {
	cfg      *config.Config
	extra    []string
	hasExtra bool
}

func newCachesModule(cfg *config.Config) (Module, error) {
	extra := make([]string, 0, len(cfg.Modules.ExtraCachePatterns))
	for _, pattern := range cfg.Modules.ExtraCachePatterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed != "" {
			extra = append(extra, trimmed)
		}
	}
	return &cachesModule{cfg: cfg, extra: extra, hasExtra: len(extra) > 0}, nil
}

func (m *cachesModule) Name() string { return CachesModuleName }

func (m *cachesModule) SupportsWatch() bool { return true }

func (m *cachesModule) RecoveryEnabled() bool { return false }

func (m *cachesModule) Classify(path string) (DetectedFile, bool) {
	name := filepath.Base(path)

	if nosync.IsCandidate(path) {
		return m.detected(path, fmt.Sprintf("ephemeral cache directory: %s", name)), true
	}

	if m.hasExtra {
		info, err := os.Lstat(path)
		if err == nil && info.IsDir() && !strings.HasSuffix(name, nosync.Suffix) &&
			nosync.MatchesPatterns(name, m.extra) {
			return m.detected(path, fmt.Sprintf("ephemeral cache directory (custom pattern): %s", name)), true
		}
	}

	return DetectedFile{}, false
}

func (m *cachesModule) detected(path, reason string) DetectedFile {
	return DetectedFile{
		Path:            path,
		Module:          CachesModuleName,
		Reason:          reason,
		RecoveryEnabled: false,
		DetectedAt:      time.Now().UTC(),
	}
}

// ScanDirectory reports cache directories without descending into them, so
// build/lib/__pycache__ is not reported separately when build/ already is.
// Subtrees already marked .nosync are skipped entirely.
func (m *cachesModule) ScanDirectory(dir string) []DetectedFile {
	var detected []DetectedFile
	if _, err := os.Stat(dir); err != nil {
		return detected
	}

	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if strings.HasSuffix(entry.Name(), nosync.Suffix) {
			return fs.SkipDir
		}
		if result, ok := m.Classify(path); ok {
			detected = append(detected, result)
			return fs.SkipDir
		}
		return nil
	})
	return detected
}

func (m *cachesModule) ScanAll() []DetectedFile {
	var detected []DetectedFile
	for _, dir := range m.cfg.WatchDirectories {
		detected = append(detected, m.ScanDirectory(dir)...)
	}
	return detected
}
