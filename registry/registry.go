// Package registry versions catalog snapshots in a blob store. Each push
// serializes the full catalog into an immutable blob and records a manifest
// entry carrying the version, the blob key and the product count. Pulls
// resolve a version (or the latest) back into a catalog store.
package registry

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/prodmatch/blobstore"
	"github.com/hupe1980/prodmatch/catalog"
)

// Snapshot describes one committed catalog version.
type Snapshot struct {
	// Version is the monotonically increasing snapshot version, starting at 1.
	Version uint64 `json:"version"`

	// Key is the blob name the snapshot payload was written under.
	Key string `json:"key"`

	// ProductCount is the number of products the snapshot contains.
	ProductCount int `json:"product_count"`

	// CreatedAt is the commit time.
	CreatedAt time.Time `json:"created_at"`
}

// Options contains options for the registry.
type Options struct {
	// Prefix is prepended to every snapshot blob name.
	Prefix string

	// Compression selects the payload compression of pushed snapshots.
	Compression catalog.Compression

	// Now returns the current time. Overridable for tests.
	Now func() time.Time
}

// DefaultOptions are the default registry options.
var DefaultOptions = Options{
	Prefix:      "snapshots/",
	Compression: catalog.CompressionZSTD,
	Now:         time.Now,
}

// Registry pushes and pulls versioned catalog snapshots.
type Registry struct {
	blobs    blobstore.BlobStore
	manifest Manifest
	opts     Options
}

// New creates a new registry over the given blob store and manifest.
func New(blobs blobstore.BlobStore, manifest Manifest, optFns ...func(o *Options)) *Registry {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Registry{
		blobs:    blobs,
		manifest: manifest,
		opts:     opts,
	}
}

// Push serializes the catalog into a new immutable snapshot blob and commits
// a manifest entry for it. The returned snapshot carries the assigned version
// and the product count at commit time.
func (r *Registry) Push(ctx context.Context, store *catalog.Store) (Snapshot, error) {
	latest, ok, err := r.manifest.Latest(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve latest version: %w", err)
	}

	version := uint64(1)
	if ok {
		version = latest.Version + 1
	}

	var buf bytes.Buffer
	if _, err := store.WriteTo(&buf, func(o *catalog.SaveOptions) {
		o.Compression = r.opts.Compression
	}); err != nil {
		return Snapshot{}, fmt.Errorf("serialize catalog: %w", err)
	}

	snap := Snapshot{
		Version:      version,
		Key:          fmt.Sprintf("%scatalog-%06d.pmca", r.opts.Prefix, version),
		ProductCount: store.Len(),
		CreatedAt:    r.opts.Now().UTC(),
	}

	if err := r.blobs.Put(ctx, snap.Key, &buf, int64(buf.Len())); err != nil {
		return Snapshot{}, fmt.Errorf("write snapshot blob: %w", err)
	}

	if err := r.manifest.Commit(ctx, snap); err != nil {
		// The orphaned blob is harmless, the manifest never references it.
		return Snapshot{}, fmt.Errorf("commit snapshot: %w", err)
	}

	return snap, nil
}

// Pull loads the catalog snapshot with the given version. Version 0 selects
// the latest committed snapshot.
func (r *Registry) Pull(ctx context.Context, version uint64) (*catalog.Store, Snapshot, error) {
	var (
		snap Snapshot
		ok   bool
		err  error
	)

	if version == 0 {
		snap, ok, err = r.manifest.Latest(ctx)
	} else {
		snap, ok, err = r.manifest.Get(ctx, version)
	}

	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("resolve snapshot: %w", err)
	}

	if !ok {
		return nil, Snapshot{}, ErrSnapshotNotFound
	}

	rc, _, err := r.blobs.Open(ctx, snap.Key)
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("open snapshot blob %q: %w", snap.Key, err)
	}
	defer rc.Close()

	store, err := catalog.Read(rc)
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("decode snapshot %q: %w", snap.Key, err)
	}

	return store, snap, nil
}

// List returns all committed snapshots in ascending version order.
func (r *Registry) List(ctx context.Context) ([]Snapshot, error) {
	return r.manifest.List(ctx)
}
