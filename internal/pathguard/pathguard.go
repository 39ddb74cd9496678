package pathguard

import (
	"os"
	"path/filepath"
	"strings"
)

// protectedRoots are filesystem roots excluded from deletion by policy.
var protectedRoots = []string{
	"/",
	"/System",
	"/Applications",
	"/Library",
	"/usr",
	"/bin",
	"/sbin",
	"/var",
	"/private",
	"/etc",
}

// Guard decides whether a path may be deleted or moved.
type Guard struct {
	home string
}

// New builds a guard anchored at the current user's home directory. An empty
// home disables the carve-out, which only makes the guard stricter.
func New() *Guard {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return &Guard{home: home}
}

// NewWithHome builds a guard with an explicit home directory, for tests.
func NewWithHome(home string) *Guard {
	return &Guard{home: home}
}

// Allowed reports whether the path may be mutated. The path is resolved to
// its absolute form first; symlinks are followed so a link into a protected
// root cannot bypass the guard.
func (g *Guard) Allowed(path string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		// The target may already be gone; fall back to lexical cleanup.
		resolved = filepath.Clean(path)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return false
	}

	if g.home != "" && underRoot(abs, g.home) {
		return true
	}
	for _, root := range protectedRoots {
		if underRoot(abs, root) {
			return false
		}
	}
	return true
}

func underRoot(path, root string) bool {
	if root == "/" {
		return path == "/"
	}
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}
