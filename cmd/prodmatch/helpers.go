package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/prodmatch"
	"github.com/hupe1980/prodmatch/blobstore"
	minioblob "github.com/hupe1980/prodmatch/blobstore/minio"
	s3blob "github.com/hupe1980/prodmatch/blobstore/s3"
	"github.com/hupe1980/prodmatch/calibrate"
	"github.com/hupe1980/prodmatch/catalog"
	"github.com/hupe1980/prodmatch/extractor"
	"github.com/hupe1980/prodmatch/registry"
	"github.com/hupe1980/prodmatch/video"
)

// appContext carries lazily loaded configuration shared across commands.
type appContext struct {
	configFlag *string

	cfg *Config
}

func newAppContext(configFlag *string) *appContext {
	return &appContext{configFlag: configFlag}
}

func (a *appContext) config() (*Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	path := *a.configFlag
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	a.cfg = cfg
	return cfg, nil
}

func (a *appContext) logger() (*prodmatch.Logger, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	var level slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.Logging.Level)
	}

	if strings.EqualFold(cfg.Logging.Format, "json") {
		return prodmatch.NewJSONLogger(level), nil
	}
	return prodmatch.NewTextLogger(level), nil
}

// openStore loads the catalog from the configured path. A missing file
// yields an empty catalog.
func (a *appContext) openStore() (*catalog.Store, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg.Storage.CatalogPath)
}

// engine builds the full engine from configuration.
func (a *appContext) engine() (*prodmatch.Engine, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	if cfg.Extractor.Command == "" {
		return nil, fmt.Errorf("extractor command not configured")
	}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	logger, err := a.logger()
	if err != nil {
		return nil, err
	}

	ext := extractor.NewExecExtractor(cfg.Extractor.Command, cfg.Extractor.Args...)

	opts := []prodmatch.Option{
		prodmatch.WithLogger(logger),
		prodmatch.WithStorePath(cfg.Storage.CatalogPath),
		prodmatch.WithListing(catalog.NewListing(cfg.Storage.ListingPath)),
		prodmatch.WithMinMatchCount(cfg.Matching.MinMatchCount),
		prodmatch.WithDetectOptions(extractor.DetectOptions{
			ContrastThreshold: cfg.Extractor.ContrastThreshold,
			EdgeThreshold:     cfg.Extractor.EdgeThreshold,
		}),
		prodmatch.WithCalibration(func(o *calibrate.Options) {
			o.Target = cfg.Calibration.TargetKeypoints
			o.Tolerance = cfg.Calibration.Tolerance
			o.Min = cfg.Calibration.MinThreshold
			o.Max = cfg.Calibration.MaxThreshold
			o.MaxIters = cfg.Calibration.MaxIterations
		}),
		prodmatch.WithSampler(func(o *video.SamplerOptions) {
			o.EveryNSeconds = cfg.Video.EveryNSeconds
			o.MinMatches = cfg.Video.MinMatches
		}),
		prodmatch.WithAggregation(func(o *video.AggregateOptions) {
			o.WindowSize = cfg.Video.WindowSize
			o.MinFrames = cfg.Video.MinFrames
		}),
		prodmatch.WithLimits(video.NewLimits(video.LimitsConfig{
			MaxConcurrentJobs: int64(cfg.Video.MaxConcurrentJobs),
			FramesPerSec:      cfg.Video.FramesPerSec,
		})),
		prodmatch.WithOpener(&video.FFmpegOpener{
			Path: cfg.Video.FFmpegPath,
			FPS:  cfg.Video.DumpFPS,
		}),
	}

	if cfg.Video.TranscriberCmd != "" {
		opts = append(opts, prodmatch.WithTranscriber(&video.ExecTranscriber{
			Command: cfg.Video.TranscriberCmd,
			Args:    cfg.Video.TranscriberArgs,
		}))
	}

	return prodmatch.New(store, ext, opts...)
}

// snapshotRegistry builds the snapshot registry from configuration.
func (a *appContext) snapshotRegistry(ctx context.Context) (*registry.Registry, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	var blobs blobstore.BlobStore
	switch cfg.Snapshot.Backend {
	case "local":
		blobs = blobstore.NewLocalStore(cfg.Snapshot.Dir)
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		blobs = s3blob.NewStore(awss3.NewFromConfig(awsCfg), cfg.Snapshot.Bucket, "")
	case "minio":
		client, err := minio.New(cfg.Snapshot.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Snapshot.AccessKey, cfg.Snapshot.SecretKey, ""),
			Secure: cfg.Snapshot.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to MinIO: %w", err)
		}
		blobs = minioblob.NewStore(client, cfg.Snapshot.Bucket, "")
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}

	var manifest registry.Manifest
	switch cfg.Snapshot.Manifest {
	case "file":
		path := cfg.Snapshot.ManifestPath
		if path == "" {
			path = "data/manifest.json"
		}
		manifest = registry.NewFileManifest(path)
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		manifest = registry.NewDDBManifest(dynamodb.NewFromConfig(awsCfg), cfg.Snapshot.Table, cfg.Snapshot.Registry)
	default:
		return nil, fmt.Errorf("unknown snapshot manifest %q", cfg.Snapshot.Manifest)
	}

	return registry.New(blobs, manifest, func(o *registry.Options) {
		if cfg.Snapshot.Prefix != "" {
			o.Prefix = cfg.Snapshot.Prefix
		}
	}), nil
}
