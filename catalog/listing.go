package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/hupe1980/prodmatch/core"
)

// ListingEntry is one row of the flat name listing.
type ListingEntry struct {
	ID   core.ProductID
	Name string
}

// Listing is the human-readable {product_id, name} companion file consumed by
// the name-based text annotator. It is rewritten in full on every update.
//
// The descriptor store is authoritative: when the two disagree after a
// partial write, Reconcile repairs the listing from the store, never the
// reverse.
type Listing struct {
	path string
}

// NewListing creates a listing bound to path. The file is created lazily on
// the first write.
func NewListing(path string) *Listing {
	return &Listing{path: path}
}

// Path returns the listing file path.
func (l *Listing) Path() string { return l.path }

// Read returns all listing entries. A missing file is an empty listing, not
// an error.
func (l *Listing) Read() ([]ListingEntry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: open listing %s: %w", l.path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: read listing %s: %w", l.path, err)
	}

	var entries []ListingEntry
	for i, row := range rows {
		if i == 0 {
			// Header row.
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("catalog: listing %s row %d: expected 2 fields, got %d", l.path, i, len(row))
		}
		entries = append(entries, ListingEntry{ID: core.ProductID(row[0]), Name: row[1]})
	}
	return entries, nil
}

// WriteAll rewrites the listing with the given entries (read-modify-write-all
// semantics, same atomic write-then-rename discipline as the store file).
func (l *Listing) WriteAll(entries []ListingEntry) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("catalog: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("catalog: create temp listing: %w", err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"product_id", "name"}); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: write listing header: %w", err)
	}
	for _, e := range entries {
		if err := w.Write([]string{string(e.ID), e.Name}); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
			return fmt.Errorf("catalog: write listing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: flush listing: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: close temp listing: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("catalog: rename listing %s: %w", l.path, err)
	}
	return nil
}

// Sync rewrites the listing from the store contents.
func (l *Listing) Sync(s *Store) error {
	recs := s.All()
	entries := make([]ListingEntry, 0, len(recs))
	for _, r := range recs {
		entries = append(entries, ListingEntry{ID: r.ID, Name: r.Name})
	}
	return l.WriteAll(entries)
}

// ReconcileReport describes a repaired store/listing inconsistency.
type ReconcileReport struct {
	// Missing are store ids that were absent from the listing.
	Missing []core.ProductID
	// Orphaned are listing ids with no store entry.
	Orphaned []core.ProductID
}

// Dirty reports whether the listing had to be repaired.
func (r ReconcileReport) Dirty() bool {
	return len(r.Missing) > 0 || len(r.Orphaned) > 0
}

// Reconcile verifies the listing against the store and rewrites it from the
// store when they disagree. Called at load time; a partial failure between a
// store save and a listing update is recovered here, not treated as a crash.
func (l *Listing) Reconcile(s *Store) (ReconcileReport, error) {
	entries, err := l.Read()
	if err != nil {
		return ReconcileReport{}, err
	}

	listed := make(map[core.ProductID]string, len(entries))
	for _, e := range entries {
		listed[e.ID] = e.Name
	}

	var report ReconcileReport
	for _, rec := range s.All() {
		name, ok := listed[rec.ID]
		if !ok || name != rec.Name {
			report.Missing = append(report.Missing, rec.ID)
		}
		delete(listed, rec.ID)
	}
	for id := range listed {
		report.Orphaned = append(report.Orphaned, id)
	}
	slices.Sort(report.Orphaned)

	if report.Dirty() {
		if err := l.Sync(s); err != nil {
			return report, err
		}
	}
	return report, nil
}
