// Package logging builds the slog loggers used across driftclean.
//
// Loggers are constructed once at startup from configuration and injected
// into the daemon, watcher, scanner, and stores; nothing in the repository
// reads a process-wide logger. Two output formats are supported: a compact
// console format for interactive use and JSON for log files and collectors.
// Attr helpers and standardized field-name constants keep structured keys
// consistent between components.
package logging
