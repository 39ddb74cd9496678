package detect

import (
	"path/filepath"
	"testing"

	"driftclean/internal/testsupport"
)

func newTestCoverage(t *testing.T, dirs ...string) Module {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if len(dirs) > 0 {
		cfg.WatchDirectories = dirs
	}
	module, err := newCoverageModule(cfg)
	if err != nil {
		t.Fatalf("newCoverageModule: %v", err)
	}
	return module
}

func TestCoverageClassifyRequiresMergedSibling(t *testing.T) {
	dir := t.TempDir()
	module := newTestCoverage(t)

	fragment := filepath.Join(dir, ".coverage.host.pid1234.abcdef")
	testsupport.WriteFile(t, fragment, "fragment")

	if _, ok := module.Classify(fragment); ok {
		t.Fatal("fragment without merged .coverage may still be in flight")
	}

	testsupport.WriteFile(t, filepath.Join(dir, ".coverage"), "merged")
	result, ok := module.Classify(fragment)
	if !ok {
		t.Fatal("fragment with merged sibling should classify")
	}
	if result.RecoveryEnabled {
		t.Fatal("coverage fragments are regenerable and must bypass recovery")
	}
}

func TestCoverageClassifyRejectsMergedDatabase(t *testing.T) {
	dir := t.TempDir()
	module := newTestCoverage(t)

	merged := filepath.Join(dir, ".coverage")
	testsupport.WriteFile(t, merged, "merged")

	if _, ok := module.Classify(merged); ok {
		t.Fatal("the merged database itself must never be flagged")
	}
}

func TestCoverageScanSkipsToolingDirs(t *testing.T) {
	dir := t.TempDir()
	module := newTestCoverage(t, dir)

	visible := filepath.Join(dir, ".coverage.host.pid1.x")
	testsupport.WriteFile(t, visible, "fragment")
	testsupport.WriteFile(t, filepath.Join(dir, ".coverage"), "merged")

	hidden := filepath.Join(dir, ".venv", ".coverage.host.pid2.y")
	testsupport.WriteFile(t, hidden, "fragment")
	testsupport.WriteFile(t, filepath.Join(dir, ".venv", ".coverage"), "merged")

	detected := module.ScanAll()
	if len(detected) != 1 {
		t.Fatalf("detected %d files, want 1", len(detected))
	}
	if detected[0].Path != visible {
		t.Fatalf("detected %s, want %s", detected[0].Path, visible)
	}
}
