package recovery

import "errors"

var (
	// ErrRecoveryFailed wraps a failed move into the trash area. The
	// original file is untouched when this is returned.
	ErrRecoveryFailed = errors.New("recovery move failed")

	// ErrNotFound is returned by Restore when no entry matches the path.
	ErrNotFound = errors.New("no recovery entry for path")

	// ErrDestinationExists is returned by Restore when something already
	// occupies the original path. Restore never overwrites.
	ErrDestinationExists = errors.New("restore destination already exists")
)
