package main

import (
	"os"
	"path/filepath"
	"testing"
)

func seedConflict(t *testing.T, dir, stem, ext string) string {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, stem+ext), []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	duplicate := filepath.Join(dir, stem+" 2"+ext)
	if err := os.WriteFile(duplicate, []byte("duplicate"), 0o644); err != nil {
		t.Fatal(err)
	}
	return duplicate
}

func TestScanReportsCandidates(t *testing.T) {
	env := setupCLITestEnv(t)
	duplicate := seedConflict(t, env.watchDir, "invoice", ".pdf")

	out, _, err := runCLI(t, []string{"scan"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, duplicate)
	requireContains(t, out, "1 candidate(s)")

	// The duplicate is still on disk; scan is read-only.
	if _, err := os.Stat(duplicate); err != nil {
		t.Fatalf("scan must not remove files: %v", err)
	}
}

func TestScanEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"scan"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "No cleanup candidates found")
}

func TestScanSingleDirectory(t *testing.T) {
	env := setupCLITestEnv(t)

	other := filepath.Join(env.baseDir, "elsewhere")
	if err := os.MkdirAll(other, 0o755); err != nil {
		t.Fatal(err)
	}
	seedConflict(t, env.watchDir, "inside", ".txt")
	outside := seedConflict(t, other, "outside", ".txt")

	out, _, err := runCLI(t, []string{"scan", "--dir", other}, env.configPath)
	if err != nil {
		t.Fatalf("scan --dir: %v", err)
	}
	requireContains(t, out, outside)
	requireContains(t, out, "1 candidate(s)")
}
