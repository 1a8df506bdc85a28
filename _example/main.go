package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/prodmatch"
	"github.com/hupe1980/prodmatch/catalog"
	"github.com/hupe1980/prodmatch/core"
	"github.com/hupe1980/prodmatch/extractor"
)

// demoExtractor serves canned descriptors so the example runs without an
// external SIFT tool. Real deployments use extractor.NewExecExtractor.
type demoExtractor struct {
	descs map[string]core.Descriptors
}

func (d *demoExtractor) DetectAndCompute(ctx context.Context, img extractor.Image, opts extractor.DetectOptions) (core.Descriptors, error) {
	return d.descs[string(img)], nil
}

func (d *demoExtractor) PreviewKeypoints(ctx context.Context, img extractor.Image, opts extractor.DetectOptions) ([]byte, int, error) {
	return nil, int(15.0 / opts.ContrastThreshold), nil
}

func main() {
	ctx := context.Background()

	cola, err := core.NewDescriptors(4, []float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	})
	if err != nil {
		log.Fatal(err)
	}

	ext := &demoExtractor{
		descs: map[string]core.Descriptors{
			"cola.jpg": cola,
		},
	}

	engine, err := prodmatch.New(catalog.NewStore(), ext,
		prodmatch.WithMinMatchCount(2),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("--- Register ---")
	res, err := engine.Register(ctx, "Coca-Cola", extractor.Image("cola.jpg"), nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Message)
	fmt.Printf("calibrated threshold: %.5f\n", res.Threshold)

	fmt.Println("--- Identify ---")
	hit, err := engine.Identify(ctx, extractor.Image("cola.jpg"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s (score %d, confidence %.1f)\n", hit.Label, hit.MatchScore, hit.Confidence)

	fmt.Println("--- Annotate ---")
	out, err := engine.AnnotateText("Me gusta la Coca-Cola")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
}
