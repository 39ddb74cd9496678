package nosync

import (
	"os"
	"strings"
)

// Suffix marks a directory as excluded from cloud sync.
const Suffix = ".nosync"

// DefaultPatterns lists directory names that are safe to exclude from sync
// because their contents are regenerated by tooling. Entries starting with
// "*" match name suffixes.
var DefaultPatterns = []string{
	".venv",
	"venv",
	".env",
	"node_modules",
	"__pycache__",
	".pytest_cache",
	".mypy_cache",
	".ruff_cache",
	".tox",
	".nox",
	".eggs",
	"*.egg-info",
	".build",
	"build",
	"dist",
	".cache",
}

// MatchesPatterns reports whether a directory name matches any pattern.
func MatchesPatterns(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "*") {
			if strings.HasSuffix(name, pattern[1:]) {
				return true
			}
			continue
		}
		if name == pattern {
			return true
		}
	}
	return false
}

// IsCandidate reports whether path is a directory that should be excluded
// from sync: it matches the default pattern set and is not already marked.
func IsCandidate(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	name := info.Name()
	if strings.HasSuffix(name, Suffix) {
		return false
	}
	return MatchesPatterns(name, DefaultPatterns)
}
