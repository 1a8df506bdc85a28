// Package match implements descriptor matching: ratio-test filtered
// 2-nearest-neighbor scoring of a query descriptor set against per-product
// reference sets, and a linear scan over the catalog to pick the best match.
package match

import (
	"github.com/hupe1980/prodmatch/catalog"
	"github.com/hupe1980/prodmatch/core"
	"github.com/hupe1980/prodmatch/distance"
)

// DefaultRatio is Lowe's ratio-test threshold: a nearest-neighbor pair is
// accepted only if the nearest distance is below this fraction of the
// second-nearest distance.
const DefaultRatio = 0.75

// DefaultMinMatchCount is the minimum accepted-pair count for a confident
// identification of a still image.
const DefaultMinMatchCount = 10

// Options contains configuration options for scoring.
type Options struct {
	// Ratio is the ratio-test threshold on true (not squared) distances.
	Ratio float64
}

// DefaultOptions contains the default configuration options for scoring.
var DefaultOptions = Options{
	Ratio: DefaultRatio,
}

// Score counts ratio-test-accepted matches between query and ref.
//
// For each query descriptor the two nearest reference descriptors are found
// by squared L2 distance; the pair is accepted iff d1 < ratio*d2 on true
// distances, evaluated as d1² < ratio²*d2² to avoid square roots. A reference
// set with fewer than two descriptors scores zero, as the second neighbor is
// undefined.
func Score(query, ref core.Descriptors, optFns ...func(o *Options)) int {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if query.Dim != ref.Dim || query.Empty() || ref.Count() < 2 {
		return 0
	}

	ratio2 := float32(opts.Ratio * opts.Ratio)

	good := 0
	for i := 0; i < query.Count(); i++ {
		q := query.At(i)

		var best, second float32 = -1, -1
		for j := 0; j < ref.Count(); j++ {
			d := distance.SquaredL2(q, ref.At(j))
			switch {
			case best < 0 || d < best:
				second = best
				best = d
			case second < 0 || d < second:
				second = d
			}
		}

		if best < ratio2*second {
			good++
		}
	}
	return good
}

// Result is the outcome of an identification scan.
type Result struct {
	// Record is the best-matching product, valid only when Matched is true.
	Record catalog.ProductRecord

	// Score is the accepted-pair count for the best product, reported even
	// when it falls below the match floor.
	Score int

	// Matched reports whether Score reached the minimum match count.
	Matched bool
}

// Identify scans every product in the store and returns the one with the
// maximum match score. The scan follows the store's insertion order and the
// first product reaching the maximum wins, so ties break deterministically.
//
// A winning score below minMatchCount reports no match but still carries the
// observed score.
func Identify(store *catalog.Store, query core.Descriptors, minMatchCount int, optFns ...func(o *Options)) Result {
	if query.Empty() {
		return Result{}
	}

	bestScore := -1
	var bestRec catalog.ProductRecord
	for _, rec := range store.All() {
		if score := Score(query, rec.Descriptors, optFns...); score > bestScore {
			bestScore = score
			bestRec = rec
		}
	}
	if bestScore < 0 {
		// Empty catalog.
		return Result{}
	}

	result := Result{Score: bestScore}
	if bestScore >= minMatchCount {
		result.Matched = true
		result.Record = bestRec
	}
	return result
}
