// Package transcript fuses time-stamped speech segments with product
// detections, and annotates arbitrary text against the catalog name listing.
// It is pure text and time logic; no vision types cross this boundary.
package transcript

import (
	"sort"
	"strings"

	"github.com/hupe1980/prodmatch/core"
)

// Segment is one externally transcribed utterance. Segments arrive ordered by
// start time and non-overlapping by construction of the transcriber.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Window is a confident detection interval with the products visible in it.
type Window struct {
	Start    float64
	End      float64
	Products []core.ProductID
}

// AnnotateOptions contains configuration options for Annotate.
type AnnotateOptions struct {
	// MinWordsText is the minimum token count for a segment to be
	// considered for annotation. Shorter segments ("gracias", "ok") pass
	// through unchanged.
	MinWordsText int

	// MinPresenceRatio is the minimum fraction of overlapping windows a
	// product must appear in to be referenced.
	MinPresenceRatio float64
}

// DefaultAnnotateOptions contains the default configuration options for
// Annotate.
var DefaultAnnotateOptions = AnnotateOptions{
	MinWordsText:     4,
	MinPresenceRatio: 0.6,
}

// Annotate links each transcript segment to the products confidently visible
// while it was spoken, appending product references in the " (SKU:id, ...)"
// marker format, and concatenates the segments into the final script.
//
// A window overlaps a segment unless it ends before the segment starts or
// starts after it ends. A product is referenced only if its presence ratio
// across overlapping windows reaches MinPresenceRatio. References are sorted
// by id for determinism.
func Annotate(segments []Segment, windows []Window, optFns ...func(o *AnnotateOptions)) string {
	opts := DefaultAnnotateOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, annotateSegment(seg, windows, opts))
	}
	return strings.Join(parts, " ")
}

func annotateSegment(seg Segment, windows []Window, opts AnnotateOptions) string {
	text := seg.Text
	if len(strings.Fields(text)) < opts.MinWordsText {
		return text
	}

	counts := make(map[core.ProductID]int)
	total := 0
	for _, w := range windows {
		overlap := !(seg.End < w.Start || seg.Start > w.End)
		if !overlap {
			continue
		}
		total++
		for _, id := range w.Products {
			counts[id]++
		}
	}
	if total == 0 {
		return text
	}

	var kept []string
	for id, count := range counts {
		if float64(count)/float64(total) >= opts.MinPresenceRatio {
			kept = append(kept, string(id))
		}
	}
	if len(kept) == 0 {
		return text
	}
	sort.Strings(kept)

	markers := make([]string, len(kept))
	for i, id := range kept {
		markers[i] = "SKU:" + id
	}
	return text + " (" + strings.Join(markers, ", ") + ")"
}
