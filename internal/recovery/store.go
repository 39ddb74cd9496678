package recovery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"driftclean/internal/detect"
	"driftclean/internal/logging"
)

const dateBucketLayout = "2006-01-02"

// timeLayout is RFC 3339 with a fixed-width fractional second. Timestamps
// are stored as TEXT and compared byte-wise in SQL, so every value must be
// the same width; time.RFC3339Nano trims trailing zeros, which misorders
// whole-second values against fractional ones ('Z' sorts after '.').
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS recovery_entries (
    id            TEXT PRIMARY KEY,
    original_path TEXT NOT NULL,
    trash_path    TEXT NOT NULL UNIQUE,
    module        TEXT NOT NULL,
    deleted_at    TEXT NOT NULL,
    expires_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recovery_original ON recovery_entries(original_path);
CREATE INDEX IF NOT EXISTS idx_recovery_expires ON recovery_entries(expires_at);
`

// Entry records one recovered deletion.
type Entry struct {
	ID           string
	OriginalPath string
	TrashPath    string
	Module       string
	DeletedAt    time.Time
	ExpiresAt    time.Time
}

// Store manages the trash hierarchy and its SQLite metadata.
type Store struct {
	db        *sql.DB
	root      string
	retention time.Duration
	logger    *slog.Logger
}

// Open initializes the trash root and connects to the metadata database.
func Open(root string, retentionDays int, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("recovery root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create recovery root: %w", err)
	}

	dbPath := filepath.Join(root, "recovery.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:        db,
		root:      root,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logging.NewComponentLogger(logger, "recovery"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Root returns the trash root directory.
func (s *Store) Root() string {
	return s.root
}

// Recover moves a detected file into the dated trash hierarchy and records
// its metadata. On any failure the original file is left in place.
func (s *Store) Recover(ctx context.Context, det detect.DetectedFile) (*Entry, error) {
	if underDir(det.Path, s.root) {
		return nil, fmt.Errorf("%w: %s is inside the trash root", ErrRecoveryFailed, det.Path)
	}

	now := time.Now().UTC()
	bucket := filepath.Join(s.root, now.Format(dateBucketLayout))
	if err := os.MkdirAll(bucket, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create date bucket: %v", ErrRecoveryFailed, err)
	}

	trashPath, err := uniqueTrashPath(bucket, filepath.Base(det.Path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecoveryFailed, err)
	}

	entry := &Entry{
		ID:           uuid.NewString(),
		OriginalPath: det.Path,
		TrashPath:    trashPath,
		Module:       det.Module,
		DeletedAt:    now,
		ExpiresAt:    now.Add(s.retention),
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO recovery_entries (id, original_path, trash_path, module, deleted_at, expires_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.OriginalPath,
		entry.TrashPath,
		entry.Module,
		entry.DeletedAt.Format(timeLayout),
		entry.ExpiresAt.Format(timeLayout),
	); err != nil {
		return nil, fmt.Errorf("%w: insert entry: %v", ErrRecoveryFailed, err)
	}

	// The rename is the commit point. If it fails the row is rolled back so
	// no metadata refers to a file that was never moved.
	if err := os.Rename(det.Path, trashPath); err != nil {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM recovery_entries WHERE id = ?`, entry.ID)
		return nil, fmt.Errorf("%w: move %s: %v", ErrRecoveryFailed, det.Path, err)
	}

	s.logger.Info("recovered to trash",
		logging.String(logging.FieldPath, det.Path),
		logging.String("trash_path", trashPath),
		logging.String(logging.FieldModule, det.Module))
	return entry, nil
}

// List returns every recovery entry, newest first.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, original_path, trash_path, module, deleted_at, expires_at
         FROM recovery_entries ORDER BY deleted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list recovery entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FindByOriginal returns the most recent entry for an original path, or nil.
func (s *Store) FindByOriginal(ctx context.Context, originalPath string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, original_path, trash_path, module, deleted_at, expires_at
         FROM recovery_entries WHERE original_path = ? ORDER BY deleted_at DESC LIMIT 1`,
		originalPath)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find recovery entry: %w", err)
	}
	return entry, nil
}

// Restore moves a recovered file back to its original path and drops the
// metadata row. It never overwrites an existing destination.
func (s *Store) Restore(ctx context.Context, originalPath string) error {
	entry, err := s.FindByOriginal(ctx, originalPath)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, originalPath)
	}

	if _, err := os.Lstat(entry.OriginalPath); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, entry.OriginalPath)
	}
	if _, err := os.Lstat(entry.TrashPath); err != nil {
		return fmt.Errorf("%w: trashed file missing at %s", ErrNotFound, entry.TrashPath)
	}

	if err := os.MkdirAll(filepath.Dir(entry.OriginalPath), 0o755); err != nil {
		return fmt.Errorf("create restore directory: %w", err)
	}
	if err := os.Rename(entry.TrashPath, entry.OriginalPath); err != nil {
		return fmt.Errorf("restore move: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM recovery_entries WHERE id = ?`, entry.ID); err != nil {
		return fmt.Errorf("delete restored entry: %w", err)
	}

	s.logger.Info("restored from trash",
		logging.String(logging.FieldPath, entry.OriginalPath),
		logging.String("trash_path", entry.TrashPath))
	return nil
}

// SweepExpired removes every entry whose expiry has passed, deletes the
// trashed files, and prunes empty date buckets. Running it twice in a row
// with no new entries removes nothing on the second call.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.UTC().Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, original_path, trash_path, module, deleted_at, expires_at
         FROM recovery_entries WHERE expires_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("query expired entries: %w", err)
	}

	var expired []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		expired = append(expired, entry)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	removed := 0
	for _, entry := range expired {
		if err := os.Remove(entry.TrashPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove expired trash file",
				logging.String("trash_path", entry.TrashPath), logging.Error(err))
			continue
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM recovery_entries WHERE id = ?`, entry.ID); err != nil {
			return removed, fmt.Errorf("delete expired entry: %w", err)
		}
		removed++
	}

	if removed > 0 {
		s.pruneEmptyBuckets()
		s.logger.Info("retention sweep complete", logging.Int("removed", removed))
	}
	return removed, nil
}

// pruneEmptyBuckets removes empty YYYY-MM-DD directories under the root.
func (s *Store) pruneEmptyBuckets() {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() {
			continue
		}
		if _, err := time.Parse(dateBucketLayout, dirEntry.Name()); err != nil {
			continue
		}
		bucket := filepath.Join(s.root, dirEntry.Name())
		contents, err := os.ReadDir(bucket)
		if err != nil || len(contents) > 0 {
			continue
		}
		_ = os.Remove(bucket)
	}
}

func uniqueTrashPath(bucket, name string) (string, error) {
	candidate := filepath.Join(bucket, name)
	if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
		return candidate, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for counter := 1; counter < 10000; counter++ {
		candidate = filepath.Join(bucket, fmt.Sprintf("%s_%d%s", stem, counter, ext))
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free trash name for %s", name)
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry      Entry
		deletedRaw string
		expiresRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.OriginalPath,
		&entry.TrashPath,
		&entry.Module,
		&deletedRaw,
		&expiresRaw,
	); err != nil {
		return nil, err
	}
	if deleted, err := time.Parse(time.RFC3339Nano, deletedRaw); err == nil {
		entry.DeletedAt = deleted
	}
	if expires, err := time.Parse(time.RFC3339Nano, expiresRaw); err == nil {
		entry.ExpiresAt = expires
	}
	return &entry, nil
}

func underDir(path, dir string) bool {
	cleanPath := filepath.Clean(path)
	cleanDir := filepath.Clean(dir)
	return cleanPath == cleanDir || strings.HasPrefix(cleanPath, cleanDir+string(os.PathSeparator))
}
