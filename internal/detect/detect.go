package detect

import "time"

// DetectedFile records a file flagged for cleanup, with module provenance.
// Values are immutable once produced by a module's Classify.
type DetectedFile struct {
	// Path is the absolute path of the flagged file or directory.
	Path string
	// Module is the name of the module that produced the detection.
	Module string
	// Reason is a human-readable explanation shown in scan and dry-run output.
	Reason string
	// RecoveryEnabled reports whether the detection is eligible for trash
	// recovery. When false the target is deleted outright.
	RecoveryEnabled bool
	// DetectedAt is when the module classified the path.
	DetectedAt time.Time
}

// Module is a pluggable file-detection strategy.
type Module interface {
	// Name identifies the module in configuration and logs.
	Name() string
	// SupportsWatch reports whether the module participates in real-time
	// filesystem event classification.
	SupportsWatch() bool
	// RecoveryEnabled reports whether detections from this module are moved
	// to the recovery store rather than deleted outright. The value is fixed
	// per module and copied into every DetectedFile it produces.
	RecoveryEnabled() bool
	// Classify checks a single path. It may stat sibling files but must not
	// mutate the filesystem.
	Classify(path string) (DetectedFile, bool)
	// ScanDirectory enumerates matches under one directory tree.
	ScanDirectory(dir string) []DetectedFile
	// ScanAll applies ScanDirectory across every configured watch root.
	ScanAll() []DetectedFile
}
