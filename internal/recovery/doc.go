// Package recovery implements the retained trash area for recovered deletions.
//
// Recovered files are moved (never copied) into date-bucketed directories
// under the trash root, with entry metadata persisted in SQLite so listing
// and restore survive restarts. The rename is the commit point: when a move
// cannot complete the original file is left untouched and no metadata
// remains. The retention sweep removes expired entries and prunes empty
// date buckets; it is idempotent.
//
// Treat this package as the single source of truth for trash layout; the
// daemon and the recovery CLI subcommands both go through the Store.
package recovery
