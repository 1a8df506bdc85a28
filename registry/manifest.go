package registry

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned when a requested snapshot version does not
// exist, or when pulling the latest snapshot from an empty registry.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrConcurrentCommit is returned when another writer committed the same
// version first. The caller can retry the push to pick up a fresh version.
var ErrConcurrentCommit = errors.New("concurrent snapshot commit detected")

// Manifest records which snapshot versions exist and where their blobs live.
//
// Commit must be atomic per version: committing an already existing version
// fails with ErrConcurrentCommit so that two writers can never both claim the
// same version number.
type Manifest interface {
	// Commit records a new snapshot entry.
	Commit(ctx context.Context, snap Snapshot) error

	// Latest returns the highest committed snapshot, if any.
	Latest(ctx context.Context) (Snapshot, bool, error)

	// Get returns the snapshot with the given version, if committed.
	Get(ctx context.Context, version uint64) (Snapshot, bool, error)

	// List returns all committed snapshots in ascending version order.
	List(ctx context.Context) ([]Snapshot, error)
}
