// Package prodmatch provides an embedded visual product identification
// engine for Go.
//
// Products are registered from reference images: a per-image detection
// threshold is calibrated to a target keypoint count, local feature
// descriptors are extracted at that threshold and stored in a durable
// catalog. Query images are identified by a Lowe ratio test against every
// registered product.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	store, _ := catalog.Open("./data/catalog.pmca")
//	engine, _ := prodmatch.New(store, siftExtractor,
//	    prodmatch.WithStorePath("./data/catalog.pmca"),
//	    prodmatch.WithListing(catalog.NewListing("./data/products.csv")),
//	)
//
//	res, _ := engine.Register(ctx, "Coca-Cola", refImage, nil)
//	fmt.Println(res.Message)
//
//	hit, _ := engine.Identify(ctx, queryImage)
//	fmt.Println(hit.Label, hit.MatchScore)
//
// # Video Annotation
//
// With an Opener and a Transcriber configured, the engine scans a video for
// registered products and fuses the detections into the speech transcript:
//
//	engine, _ := prodmatch.New(store, siftExtractor,
//	    prodmatch.WithOpener(ffmpegOpener),
//	    prodmatch.WithTranscriber(whisperBridge),
//	)
//	script, _ := engine.ProcessVideo(ctx, "clip.mp4")
//
// # Key Features
//
//   - Automatic per-image threshold calibration (bisection to a target count)
//   - Ratio-test matching with deterministic tie-breaking
//   - Durable catalog snapshots, versioned via blob stores (S3/MinIO/local)
//   - Concurrent video scan + transcription with admission control
//   - Catalog-name transcript annotation
package prodmatch
