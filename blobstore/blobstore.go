// Package blobstore abstracts the storage backends that hold catalog
// snapshot blobs. Backends exist for the local file system, memory (tests),
// MinIO and S3.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for reading and writing immutable named blobs.
type BlobStore interface {
	// Put writes a blob atomically under name, replacing any previous blob.
	// size may be -1 when unknown.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Open opens a blob for reading and reports its size.
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)

	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
}
