// Package scanner drives full synchronous sweeps across detection modules.
//
// Sweeps run at daemon startup and on a fixed interval independent of the
// real-time watcher, bounding detection staleness to one interval when the
// notification stream drops events. The scan CLI uses the same scanner in
// read-only mode.
package scanner
