// Package config loads, defaults, and validates the driftclean configuration.
//
// Configuration is a single TOML file decoded into nested section structs.
// Load resolves the file location, applies repository defaults for anything
// the file omits, expands ~ in path fields, and validates timing values
// before any other subsystem starts. A daemon must never run with a zero or
// negative interval, so validation failures here are fatal.
package config
