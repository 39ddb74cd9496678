package detect

import (
	"fmt"
	"log/slog"

	"driftclean/internal/config"
	"driftclean/internal/logging"
)

// Registry holds the active detection modules for one process lifetime.
type Registry struct {
	modules []Module
}

// NewRegistry builds the module set from the fixed constructor list,
// filtered by the configured disabled set.
func NewRegistry(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	log := logging.NewComponentLogger(logger, "registry")
	disabled := cfg.DisabledModules()

	constructors := []func(*config.Config) (Module, error){
		newConflictsModule,
		newCoverageModule,
		newCachesModule,
	}

	modules := make([]Module, 0, len(constructors))
	for _, construct := range constructors {
		module, err := construct(cfg)
		if err != nil {
			return nil, fmt.Errorf("construct module: %w", err)
		}
		if _, off := disabled[module.Name()]; off {
			log.Info("module disabled by config", logging.String(logging.FieldModule, module.Name()))
			continue
		}
		modules = append(modules, module)
		log.Debug("module loaded", logging.String(logging.FieldModule, module.Name()))
	}

	return &Registry{modules: modules}, nil
}

// Modules returns every active module in registration order.
func (r *Registry) Modules() []Module {
	return r.modules
}

// Watchable returns the active modules that participate in real-time watching.
func (r *Registry) Watchable() []Module {
	watchable := make([]Module, 0, len(r.modules))
	for _, module := range r.modules {
		if module.SupportsWatch() {
			watchable = append(watchable, module)
		}
	}
	return watchable
}

// Names returns the active module names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for _, module := range r.modules {
		names = append(names, module.Name())
	}
	return names
}
