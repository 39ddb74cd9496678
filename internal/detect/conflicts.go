package detect

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"driftclean/internal/config"
)

// ConflictsModuleName identifies the sync-conflict detection module.
const ConflictsModuleName = "sync_conflicts"

// defaultConflictPattern matches "<base> <N>" and "<base> <N>.<ext>". The
// base capture is greedy, so in a name with several numeric tokens the
// rightmost one is treated as the conflict number.
const defaultConflictPattern = `^(.+)\s+(\d+)(\.[^.]+)?$`

// Cloud sync agents start duplicate numbering at 2.
const minConflictNumber = 2

// conflictMatch is a syntactic pattern match awaiting sibling verification.
type conflictMatch struct {
	base      string
	number    int
	extension string
}

// originalName returns the filename of the presumed original.
func (m conflictMatch) originalName() string {
	return m.base + m.extension
}

type conflictsModule struct {
	cfg     *config.Config
	pattern *regexp.Regexp
}

func newConflictsModule(cfg *config.Config) (Module, error) {
	pattern := strings.TrimSpace(cfg.Modules.ConflictPattern)
	if pattern == "" {
		pattern = defaultConflictPattern
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("conflict pattern: %w", err)
	}
	return &conflictsModule{cfg: cfg, pattern: compiled}, nil
}

func (m *conflictsModule) Name() string { return ConflictsModuleName }

func (m *conflictsModule) SupportsWatch() bool { return true }

func (m *conflictsModule) RecoveryEnabled() bool { return true }

// match applies the filename pattern without touching the filesystem.
func (m *conflictsModule) match(name string) (conflictMatch, bool) {
	groups := m.pattern.FindStringSubmatch(name)
	// A custom pattern must capture at least the base name and the number.
	if len(groups) < 3 {
		return conflictMatch{}, false
	}
	number, err := strconv.Atoi(groups[2])
	if err != nil || number < minConflictNumber {
		return conflictMatch{}, false
	}
	match := conflictMatch{
		base:   strings.TrimRight(groups[1], " "),
		number: number,
	}
	if len(groups) > 3 {
		match.extension = groups[3]
	}
	return match, true
}

// Classify flags a path when its name has the conflict shape and the
// presumed original exists as a sibling file. The sibling requirement is
// what keeps date-like and version-like names from being false positives.
func (m *conflictsModule) Classify(path string) (DetectedFile, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return DetectedFile{}, false
	}

	match, ok := m.match(filepath.Base(path))
	if !ok {
		return DetectedFile{}, false
	}

	original := filepath.Join(filepath.Dir(path), match.originalName())
	originalInfo, err := os.Stat(original)
	if err != nil || !originalInfo.Mode().IsRegular() {
		return DetectedFile{}, false
	}

	return DetectedFile{
		Path:            path,
		Module:          ConflictsModuleName,
		Reason:          fmt.Sprintf("sync conflict #%d of %s", match.number, match.originalName()),
		RecoveryEnabled: true,
		DetectedAt:      time.Now().UTC(),
	}, true
}

func (m *conflictsModule) ScanDirectory(dir string) []DetectedFile {
	var detected []DetectedFile
	if _, err := os.Stat(dir); err != nil {
		return detected
	}

	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if result, ok := m.Classify(path); ok {
			detected = append(detected, result)
		}
		return nil
	})
	return detected
}

func (m *conflictsModule) ScanAll() []DetectedFile {
	var detected []DetectedFile
	for _, dir := range m.cfg.WatchDirectories {
		detected = append(detected, m.ScanDirectory(dir)...)
	}
	return detected
}
