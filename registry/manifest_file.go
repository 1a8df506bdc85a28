package registry

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hupe1980/prodmatch/codec"
)

// FileManifest stores the snapshot manifest as a single JSON file next to the
// local catalog. It is meant for single-writer setups; concurrent processes
// should use the DynamoDB manifest instead.
type FileManifest struct {
	mu    sync.Mutex
	path  string
	codec codec.Codec
}

var _ Manifest = (*FileManifest)(nil)

// NewFileManifest creates a manifest backed by the JSON file at path. The
// file is created on first commit.
func NewFileManifest(path string) *FileManifest {
	return &FileManifest{
		path:  path,
		codec: codec.Default,
	}
}

// Commit implements the Manifest interface.
func (m *FileManifest) Commit(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps, err := m.load()
	if err != nil {
		return err
	}

	for _, s := range snaps {
		if s.Version == snap.Version {
			return ErrConcurrentCommit
		}
	}

	snaps = append(snaps, snap)

	return m.write(snaps)
}

// Latest implements the Manifest interface.
func (m *FileManifest) Latest(ctx context.Context) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps, err := m.load()
	if err != nil || len(snaps) == 0 {
		return Snapshot{}, false, err
	}

	best := snaps[0]
	for _, s := range snaps[1:] {
		if s.Version > best.Version {
			best = s
		}
	}

	return best, true, nil
}

// Get implements the Manifest interface.
func (m *FileManifest) Get(ctx context.Context, version uint64) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps, err := m.load()
	if err != nil {
		return Snapshot{}, false, err
	}

	for _, s := range snaps {
		if s.Version == version {
			return s, true, nil
		}
	}

	return Snapshot{}, false, nil
}

// List implements the Manifest interface.
func (m *FileManifest) List(ctx context.Context) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps, err := m.load()
	if err != nil {
		return nil, err
	}

	sortSnapshots(snaps)

	return snaps, nil
}

func (m *FileManifest) load() ([]Snapshot, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest %s: %w", m.path, err)
	}

	var snaps []Snapshot
	if err := m.codec.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", m.path, err)
	}

	return snaps, nil
}

func (m *FileManifest) write(snaps []Snapshot) error {
	sortSnapshots(snaps)

	data, err := m.codec.Marshal(snaps)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp manifest: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename manifest: %w", err)
	}

	return nil
}

func sortSnapshots(snaps []Snapshot) {
	slices.SortFunc(snaps, func(a, b Snapshot) int {
		return cmp.Compare(a.Version, b.Version)
	})
}
