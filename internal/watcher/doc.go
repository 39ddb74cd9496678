// Package watcher turns filesystem change notifications into detections.
//
// It subscribes fsnotify recursively to the configured watch roots, routes
// create and rename events through every watch-capable detection module, and
// emits the resulting detections on a channel for the daemon's pending-delete
// intake. Event bursts for the same path are coalesced behind a short settle
// delay so classification sees the final state of the file. The watcher only
// detects; it never mutates the filesystem.
package watcher
