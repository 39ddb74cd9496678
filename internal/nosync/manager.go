package nosync

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"driftclean/internal/config"
	"driftclean/internal/logging"
)

// Result describes the outcome of one conversion.
type Result struct {
	Path       string
	NosyncPath string
	Converted  bool
	Err        error
}

// Manager finds and converts sync-excluded directory candidates.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logging.NewComponentLogger(logger, "nosync")}
}

// Convert renames a directory to its .nosync form and creates a symlink
// under the original name so existing references keep working.
func (m *Manager) Convert(path string) Result {
	info, err := os.Lstat(path)
	if err != nil {
		return Result{Path: path, Err: fmt.Errorf("stat: %w", err)}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return Result{Path: path, Err: errors.New("already a symlink")}
	}
	if !info.IsDir() {
		return Result{Path: path, Err: errors.New("not a directory")}
	}

	nosyncPath := path + Suffix
	if _, err := os.Lstat(nosyncPath); err == nil {
		return Result{Path: path, Err: fmt.Errorf("%s already exists", filepath.Base(nosyncPath))}
	}

	if err := os.Rename(path, nosyncPath); err != nil {
		return Result{Path: path, Err: fmt.Errorf("rename: %w", err)}
	}
	if err := os.Symlink(filepath.Base(nosyncPath), path); err != nil {
		// Roll the rename back so the directory is never left orphaned.
		_ = os.Rename(nosyncPath, path)
		return Result{Path: path, Err: fmt.Errorf("symlink: %w", err)}
	}

	m.logger.Info("converted to nosync",
		logging.String(logging.FieldPath, path),
		logging.String("nosync_path", nosyncPath))
	return Result{Path: path, NosyncPath: nosyncPath, Converted: true}
}

// ScanDirectory returns conversion candidates under one root, sorted.
func (m *Manager) ScanDirectory(dir string) []string {
	var candidates []string
	if _, err := os.Stat(dir); err != nil {
		return candidates
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
		if IsCandidate(path) {
			candidates = append(candidates, path)
			return fs.SkipDir
		}
		return nil
	})

	sort.Strings(candidates)
	return candidates
}

// ScanAll returns candidates across every configured watch root.
func (m *Manager) ScanAll() []string {
	var candidates []string
	for _, dir := range m.cfg.WatchDirectories {
		candidates = append(candidates, m.ScanDirectory(dir)...)
	}
	return candidates
}
