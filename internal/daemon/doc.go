// Package daemon coordinates the long-running driftclean process.
//
// It wires the module registry, watcher, scanner, sync gate, path guard, and
// recovery store into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon owns the pending-delete set and the three
// periodic activities (full scan, pending-delete processing, retention
// sweep), all multiplexed on one event loop so the pending map needs no
// locking.
//
// Keep orchestration logic here: detection and storage semantics live in
// their respective packages while the daemon focuses on timers, intake,
// and shutdown ordering.
package daemon
