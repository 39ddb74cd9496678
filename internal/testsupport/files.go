package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates the target path (and parent directories) with the given
// contents.
func WriteFile(t testing.TB, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteConflictPair seeds a directory with an original file and a numbered
// sync-conflict duplicate, returning the duplicate's path.
func WriteConflictPair(t testing.TB, dir, stem string, number int, ext string) string {
	t.Helper()

	WriteFile(t, filepath.Join(dir, stem+ext), "original")

	duplicate := filepath.Join(dir, fmt.Sprintf("%s %d%s", stem, number, ext))
	WriteFile(t, duplicate, "duplicate")
	return duplicate
}
