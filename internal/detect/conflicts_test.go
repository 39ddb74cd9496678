package detect

import (
	"os"
	"path/filepath"
	"testing"

	"driftclean/internal/testsupport"
)

func newTestConflicts(t *testing.T, dirs ...string) Module {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if len(dirs) > 0 {
		cfg.WatchDirectories = dirs
	}
	module, err := newConflictsModule(cfg)
	if err != nil {
		t.Fatalf("newConflictsModule: %v", err)
	}
	return module
}

func TestConflictsClassifyWithSibling(t *testing.T) {
	dir := t.TempDir()
	module := newTestConflicts(t)

	duplicate := testsupport.WriteConflictPair(t, dir, "report", 2, ".txt")

	result, ok := module.Classify(duplicate)
	if !ok {
		t.Fatalf("expected %s to classify", duplicate)
	}
	if result.Module != ConflictsModuleName {
		t.Fatalf("module = %q, want %q", result.Module, ConflictsModuleName)
	}
	if !result.RecoveryEnabled {
		t.Fatal("conflict detections must be recoverable")
	}
}

func TestConflictsClassifyRequiresSibling(t *testing.T) {
	dir := t.TempDir()
	module := newTestConflicts(t)

	// "April 2025.pdf" has the conflict shape but no "April.pdf" original.
	lone := filepath.Join(dir, "April 2025.pdf")
	testsupport.WriteFile(t, lone, "newsletter")

	if _, ok := module.Classify(lone); ok {
		t.Fatalf("expected %s to be rejected without a sibling original", lone)
	}

	// Once the presumed original appears the same name is a conflict.
	testsupport.WriteFile(t, filepath.Join(dir, "April.pdf"), "original")
	if _, ok := module.Classify(lone); !ok {
		t.Fatalf("expected %s to classify once the original exists", lone)
	}
}

func TestConflictsClassifyMinimumNumber(t *testing.T) {
	dir := t.TempDir()
	module := newTestConflicts(t)

	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), "original")
	one := filepath.Join(dir, "notes 1.txt")
	testsupport.WriteFile(t, one, "dup")

	if _, ok := module.Classify(one); ok {
		t.Fatal("duplicate numbering starts at 2; #1 must be rejected")
	}
}

func TestConflictsClassifyUnicodeName(t *testing.T) {
	dir := t.TempDir()
	module := newTestConflicts(t)

	duplicate := testsupport.WriteConflictPair(t, dir, "Том", 2, ".fb2")

	result, ok := module.Classify(duplicate)
	if !ok {
		t.Fatalf("expected unicode name %s to classify", duplicate)
	}
	if result.Path != duplicate {
		t.Fatalf("path = %q, want %q", result.Path, duplicate)
	}
}

func TestConflictsClassifyHiddenFile(t *testing.T) {
	dir := t.TempDir()
	module := newTestConflicts(t)

	testsupport.WriteFile(t, filepath.Join(dir, ".coverage"), "db")
	dup := filepath.Join(dir, ".coverage 2")
	testsupport.WriteFile(t, dup, "db")

	if _, ok := module.Classify(dup); !ok {
		t.Fatal("hidden-file conflicts should classify like any other")
	}
}

func TestConflictsRightmostNumberWins(t *testing.T) {
	dir := t.TempDir()
	module := newTestConflicts(t)

	// "file 2 3.txt" is conflict #3 of "file 2.txt", not #2-something.
	testsupport.WriteFile(t, filepath.Join(dir, "file 2.txt"), "original")
	dup := filepath.Join(dir, "file 2 3.txt")
	testsupport.WriteFile(t, dup, "dup")

	result, ok := module.Classify(dup)
	if !ok {
		t.Fatalf("expected %s to classify", dup)
	}
	want := "sync conflict #3 of file 2.txt"
	if result.Reason != want {
		t.Fatalf("reason = %q, want %q", result.Reason, want)
	}
}

func TestConflictsClassifyRejectsDirectories(t *testing.T) {
	dir := t.TempDir()
	module := newTestConflicts(t)

	testsupport.WriteFile(t, filepath.Join(dir, "archive"), "original")
	dup := filepath.Join(dir, "archive 2")
	if err := os.MkdirAll(dup, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, ok := module.Classify(dup); ok {
		t.Fatal("directories must not classify as sync conflicts")
	}
}

func TestConflictsCustomPattern(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Modules.ConflictPattern = `^(.+) copy (\d+)(\.[^.]+)?$`
	module, err := newConflictsModule(cfg)
	if err != nil {
		t.Fatalf("newConflictsModule: %v", err)
	}

	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "draft.md"), "original")
	dup := filepath.Join(dir, "draft copy 2.md")
	testsupport.WriteFile(t, dup, "dup")

	if _, ok := module.Classify(dup); !ok {
		t.Fatal("custom pattern should match 'draft copy 2.md'")
	}
	plain := filepath.Join(dir, "draft 2.md")
	testsupport.WriteFile(t, plain, "dup")
	if _, ok := module.Classify(plain); ok {
		t.Fatal("default shape must not match once the pattern is overridden")
	}
}

func TestConflictsPatternWithTooFewCaptures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Modules.ConflictPattern = `(\d+)`
	module, err := newConflictsModule(cfg)
	if err != nil {
		t.Fatalf("newConflictsModule: %v", err)
	}

	dir := t.TempDir()
	dup := filepath.Join(dir, "notes 2.txt")
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), "original")
	testsupport.WriteFile(t, dup, "dup")

	// A pattern missing the number capture cannot classify anything, but it
	// must never crash the classifier.
	if _, ok := module.Classify(dup); ok {
		t.Fatal("pattern without a number capture must not match")
	}
}

func TestConflictsScanDirectory(t *testing.T) {
	dir := t.TempDir()
	module := newTestConflicts(t, dir)

	first := testsupport.WriteConflictPair(t, dir, "alpha", 2, ".txt")
	second := testsupport.WriteConflictPair(t, filepath.Join(dir, "nested"), "beta", 4, "")
	testsupport.WriteFile(t, filepath.Join(dir, "untouched.txt"), "keep")

	detected := module.ScanDirectory(dir)
	if len(detected) != 2 {
		t.Fatalf("detected %d files, want 2", len(detected))
	}
	found := map[string]bool{}
	for _, det := range detected {
		found[det.Path] = true
	}
	if !found[first] || !found[second] {
		t.Fatalf("missing expected detections in %v", found)
	}

	all := module.ScanAll()
	if len(all) != 2 {
		t.Fatalf("ScanAll detected %d files, want 2", len(all))
	}
}
