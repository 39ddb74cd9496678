package detect

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"driftclean/internal/config"
)

// CoverageModuleName identifies the stale coverage artifact module.
const CoverageModuleName = "coverage_artifacts"

// Parallel coverage runs leave .coverage.<host>.pid<N>.<hash> fragments
// behind once the merged .coverage database exists.
var coveragePattern = regexp.MustCompile(`^\.coverage\..+\.pid\d+\..+$`)

const mergedCoverageName = ".coverage"

var coverageSkipDirs = map[string]struct{}{
	".git":         {},
	".venv":        {},
	"venv":         {},
	"node_modules": {},
	".tox":         {},
	"__pycache__":  {},
}

type coverageModule struct {
	cfg *config.Config
}

func newCoverageModule(cfg *config.Config) (Module, error) {
	return &coverageModule{cfg: cfg}, nil
}

func (m *coverageModule) Name() string { return CoverageModuleName }

func (m *coverageModule) SupportsWatch() bool { return false }

// Coverage fragments are regenerable process output, never user data.
func (m *coverageModule) RecoveryEnabled() bool { return false }

// Classify flags a coverage fragment when the merged database exists in the
// same directory. Without the merged sibling the run may still be in flight.
func (m *coverageModule) Classify(path string) (DetectedFile, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return DetectedFile{}, false
	}
	if !coveragePattern.MatchString(filepath.Base(path)) {
		return DetectedFile{}, false
	}

	merged := filepath.Join(filepath.Dir(path), mergedCoverageName)
	mergedInfo, err := os.Stat(merged)
	if err != nil || !mergedInfo.Mode().IsRegular() {
		return DetectedFile{}, false
	}

	return DetectedFile{
		Path:            path,
		Module:          CoverageModuleName,
		Reason:          "stale coverage fragment (merged .coverage exists)",
		RecoveryEnabled: false,
		DetectedAt:      time.Now().UTC(),
	}, true
}

func (m *coverageModule) ScanDirectory(dir string) []DetectedFile {
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
		if entry.IsDir() {
			if _, skip := coverageSkipDirs[entry.Name()]; skip {
				return fs.SkipDir
			}
			return nil
		}
		if result, ok := m.Classify(path); ok {
			detected = append(detected, result)
		}
		return nil
	})
	return detected
}

func (m *coverageModule) ScanAll() []DetectedFile {
	var detected []DetectedFile
	for _, dir := range m.cfg.WatchDirectories {
		detected = append(detected, m.ScanDirectory(dir)...)
	}
	return detected
}
