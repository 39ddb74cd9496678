// Package nosync excludes regenerable directories from cloud sync by
// renaming them to a .nosync suffix and leaving a compatibility symlink.
//
// The pattern set of regenerable directory names is shared with the
// ephemeral-caches detection module so the two features agree on what counts
// as a cache.
package nosync
