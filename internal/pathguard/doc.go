// Package pathguard rejects deletion targets under protected system roots.
//
// The guard is consulted immediately before every deletion or recovery move,
// never only at detection time, because the filesystem can change between
// detection and action. Paths under the user's home directory are always
// allowed: protected-root prefixes such as /Library also occur inside $HOME,
// where they are user data.
package pathguard
