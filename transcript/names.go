package transcript

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/prodmatch/catalog"
	"github.com/hupe1980/prodmatch/core"
)

// NameOptions contains configuration options for AnnotateByName.
type NameOptions struct {
	// CaseSensitive controls whether name matching respects case.
	CaseSensitive bool

	// Lookahead is how many characters after a match are checked for an
	// existing marker before inserting a new one. This guards against
	// double-annotating the same occurrence when several catalog names
	// match overlapping spans.
	Lookahead int
}

// DefaultNameOptions contains the default configuration options for
// AnnotateByName.
var DefaultNameOptions = NameOptions{
	CaseSensitive: false,
	Lookahead:     50,
}

const marker = "(SKU:"

// AnnotateByName inserts product id markers after whole-word occurrences of
// catalog names in text. No vision is involved; this is a direct string
// search against the name listing.
//
// Names are tried longest first so a short name never annotates inside a
// longer one ("Cola" inside "Coca-Cola"). Matches are processed in reverse
// text order so insertions do not shift pending match positions. The entries
// are never mutated.
func AnnotateByName(text string, entries []catalog.ListingEntry, optFns ...func(o *NameOptions)) string {
	opts := DefaultNameOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = DefaultNameOptions.Lookahead
	}

	ordered := make([]catalog.ListingEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Name) > len(ordered[j].Name)
	})

	for _, entry := range ordered {
		if entry.Name == "" {
			continue
		}
		text = annotateOne(text, entry.ID, entry.Name, opts)
	}
	return text
}

func annotateOne(text string, id core.ProductID, name string, opts NameOptions) string {
	pattern := `\b` + regexp.QuoteMeta(name) + `\b`
	if !opts.CaseSensitive {
		pattern = `(?i)` + pattern
	}
	re := regexp.MustCompile(pattern)

	matches := re.FindAllStringIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		end := matches[i][1]

		ahead := text[end:]
		if len(ahead) > opts.Lookahead {
			ahead = ahead[:opts.Lookahead]
		}
		if strings.Contains(ahead, marker) {
			continue
		}

		text = text[:end] + " " + marker + string(id) + ")" + text[end:]
	}
	return text
}
