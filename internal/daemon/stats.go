package daemon

// ModuleStats counts outcomes attributed to one detection module.
type ModuleStats struct {
	Recovered int
	Deleted   int
}

// Stats is a point-in-time snapshot of the run counters.
type Stats struct {
	Detected  int
	Recovered int
	Deleted   int
	Skipped   int
	Errors    int
	ByModule  map[string]ModuleStats
}

// counters is the mutable form, owned by the event loop.
type counters struct {
	detected  int
	recovered int
	deleted   int
	skipped   int
	errors    int
	modules   map[string]*ModuleStats
}

func (c *counters) perModule(name string) *ModuleStats {
	if c.modules == nil {
		c.modules = make(map[string]*ModuleStats)
	}
	ms, ok := c.modules[name]
	if !ok {
		ms = &ModuleStats{}
		c.modules[name] = ms
	}
	return ms
}

func (c *counters) snapshot() Stats {
	out := Stats{
		Detected:  c.detected,
		Recovered: c.recovered,
		Deleted:   c.deleted,
		Skipped:   c.skipped,
		Errors:    c.errors,
		ByModule:  make(map[string]ModuleStats, len(c.modules)),
	}
	for name, ms := range c.modules {
		out.ByModule[name] = *ms
	}
	return out
}
