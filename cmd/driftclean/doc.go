// Command driftclean removes cloud-sync clutter from watched directories.
//
// Subcommands cover the daemon (run), read-only reporting (scan), trash
// management (recovery), sync exclusion (nosync), and configuration
// utilities (config).
package main
