package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Storage contains catalog and listing file locations.
type Storage struct {
	CatalogPath string `toml:"catalog_path"`
	ListingPath string `toml:"listing_path"`
}

// Extractor contains the external feature detection tool configuration.
type Extractor struct {
	Command           string   `toml:"command"`
	Args              []string `toml:"args"`
	ContrastThreshold float64  `toml:"contrast_threshold"`
	EdgeThreshold     float64  `toml:"edge_threshold"`
}

// Calibration contains the per-image threshold search configuration.
type Calibration struct {
	TargetKeypoints int     `toml:"target_keypoints"`
	Tolerance       int     `toml:"tolerance"`
	MinThreshold    float64 `toml:"min_threshold"`
	MaxThreshold    float64 `toml:"max_threshold"`
	MaxIterations   int     `toml:"max_iterations"`
}

// Matching contains identification thresholds.
type Matching struct {
	MinMatchCount int `toml:"min_match_count"`
}

// Video contains the video scan pipeline configuration.
type Video struct {
	EveryNSeconds     int      `toml:"every_n_seconds"`
	MinMatches        int      `toml:"min_matches"`
	WindowSize        float64  `toml:"window_size"`
	MinFrames         int      `toml:"min_frames"`
	MaxConcurrentJobs int      `toml:"max_concurrent_jobs"`
	FramesPerSec      float64  `toml:"frames_per_sec"`
	FFmpegPath        string   `toml:"ffmpeg_path"`
	DumpFPS           float64  `toml:"dump_fps"`
	TranscriberCmd    string   `toml:"transcriber_cmd"`
	TranscriberArgs   []string `toml:"transcriber_args"`
}

// Snapshot contains the versioned snapshot registry configuration.
type Snapshot struct {
	// Backend selects the blob store: "local", "s3" or "minio".
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	Bucket  string `toml:"bucket"`
	Prefix  string `toml:"prefix"`

	// MinIO connection settings.
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`

	// Manifest selects the version manifest: "file" or "dynamodb".
	Manifest     string `toml:"manifest"`
	ManifestPath string `toml:"manifest_path"`
	Table        string `toml:"table"`
	Registry     string `toml:"registry"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"` // "text" or "json"
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
}

// Config encapsulates all configuration values for the prodmatch CLI.
type Config struct {
	Storage     Storage     `toml:"storage"`
	Extractor   Extractor   `toml:"extractor"`
	Calibration Calibration `toml:"calibration"`
	Matching    Matching    `toml:"matching"`
	Video       Video       `toml:"video"`
	Snapshot    Snapshot    `toml:"snapshot"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfig returns a config with all defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		Storage: Storage{
			CatalogPath: "data/catalog.pmca",
			ListingPath: "data/products.csv",
		},
		Extractor: Extractor{
			Command:           "prodmatch-sift",
			ContrastThreshold: 0.04,
			EdgeThreshold:     10,
		},
		Calibration: Calibration{
			TargetKeypoints: 1500,
			Tolerance:       50,
			MinThreshold:    0.001,
			MaxThreshold:    0.2,
			MaxIterations:   8,
		},
		Matching: Matching{
			MinMatchCount: 10,
		},
		Video: Video{
			EveryNSeconds:     1,
			MinMatches:        130,
			WindowSize:        1.0,
			// One sampled frame per second means a 1.0s window holds at
			// most one vote, so min_frames must not exceed
			// window_size/every_n_seconds.
			MinFrames:         1,
			MaxConcurrentJobs: 1,
			DumpFPS:           30,
		},
		Snapshot: Snapshot{
			Backend:  "local",
			Dir:      "data/snapshots",
			Prefix:   "snapshots/",
			Manifest: "file",
			Registry: "main",
		},
		Logging: Logging{
			Format: "text",
			Level:  "info",
		},
	}
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return "prodmatch.toml"
}

// LoadConfig parses the configuration file at path. A missing file yields
// the defaults; set values override defaults section by section.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch c.Snapshot.Backend {
	case "local", "s3", "minio":
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.Snapshot.Backend)
	}

	switch c.Snapshot.Manifest {
	case "file", "dynamodb":
	default:
		return fmt.Errorf("unknown snapshot manifest %q", c.Snapshot.Manifest)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	return nil
}

// WriteDefault writes a default config file at path, refusing to overwrite.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}

	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	return os.WriteFile(path, data, 0o644)
}
