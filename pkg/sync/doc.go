// Package sync implements the per-space mirror algorithm.
//
// Each Space is synchronized independently. The syncer fetches the Space's
// current file listing from the Hub, snapshots the local mirror directory,
// and diffs the two. Files that are missing or differ locally are
// downloaded to a temporary file and renamed into place, so that a crash
// never leaves a partially written file behind. Files that no longer exist
// remotely are removed, along with any directories that become empty.
//
// A failure partway through leaves the directory partially updated for that
// one Space only. This is acceptable: the next run's diff reconciles it.
package sync
