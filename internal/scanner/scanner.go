package scanner

import (
	"log/slog"

	"driftclean/internal/detect"
	"driftclean/internal/logging"
)

// Scanner sweeps directories with every active detection module.
type Scanner struct {
	registry *detect.Registry
	logger   *slog.Logger
}

func New(registry *detect.Registry, logger *slog.Logger) *Scanner {
	return &Scanner{
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "scanner"),
	}
}

// ScanAll sweeps every configured watch root with every module.
func (s *Scanner) ScanAll() []detect.DetectedFile {
	var detected []detect.DetectedFile
	for _, module := range s.registry.Modules() {
		results := module.ScanAll()
		if len(results) > 0 {
			s.logger.Debug("module sweep finished",
				logging.String(logging.FieldModule, module.Name()),
				logging.Int("matches", len(results)))
		}
		detected = append(detected, results...)
	}
	return detected
}

// ScanDirectory sweeps a single directory with every module.
func (s *Scanner) ScanDirectory(dir string) []detect.DetectedFile {
	var detected []detect.DetectedFile
	for _, module := range s.registry.Modules() {
		detected = append(detected, module.ScanDirectory(dir)...)
	}
	return detected
}
