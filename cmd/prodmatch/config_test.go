package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestDefaultConfig_VideoWindowAttainable(t *testing.T) {
	cfg := DefaultConfig()

	// With one sampled frame every n seconds, a window can collect at most
	// window_size/n votes. The defaults must allow a window to survive.
	votesPerWindow := int(cfg.Video.WindowSize) / cfg.Video.EveryNSeconds
	assert.GreaterOrEqual(t, votesPerWindow, cfg.Video.MinFrames)
	assert.GreaterOrEqual(t, cfg.Video.MinFrames, 1)
}

func TestLoadConfig_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodmatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
catalog_path = "/var/lib/prodmatch/catalog.pmca"

[calibration]
target_keypoints = 2000

[snapshot]
backend = "minio"
endpoint = "localhost:9000"
bucket = "catalogs"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/prodmatch/catalog.pmca", cfg.Storage.CatalogPath)
	assert.Equal(t, 2000, cfg.Calibration.TargetKeypoints)
	assert.Equal(t, "minio", cfg.Snapshot.Backend)
	assert.Equal(t, "catalogs", cfg.Snapshot.Bucket)

	// Untouched sections keep their defaults.
	assert.Equal(t, 50, cfg.Calibration.Tolerance)
	assert.Equal(t, 130, cfg.Video.MinMatches)
	assert.Equal(t, "file", cfg.Snapshot.Manifest)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodmatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[snapshot]
backend = "ftp"
`), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "unknown snapshot backend")
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodmatch.toml")

	require.NoError(t, WriteDefault(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	// Never overwrites an existing file.
	assert.Error(t, WriteDefault(path))
}
