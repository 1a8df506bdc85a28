// Package catalog implements the product catalog store: per-product feature
// descriptor sets keyed by product id, with atomic durable persistence and a
// flat human-readable name listing.
package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/prodmatch/core"
)

var (
	// ErrNoDescriptors is returned when a record is put with an empty
	// descriptor set. The store is left unchanged.
	ErrNoDescriptors = errors.New("catalog: record has no descriptors")

	// ErrNotFound is returned when a product id is not in the store.
	ErrNotFound = errors.New("catalog: product not found")
)

// ProductRecord is a registered product: an opaque id, a display name and the
// descriptor set extracted from its reference image. Records are immutable
// once stored; re-registering the same id replaces the record in full.
type ProductRecord struct {
	ID          core.ProductID
	Name        string
	Descriptors core.Descriptors
}

// Store maps product ids to their records. It assigns each product a dense
// LocalID (insertion order) used by bitmap-based pipelines.
//
// All methods are safe for concurrent use. Writes are serialized; reads never
// observe a half-applied registration.
type Store struct {
	mu      sync.RWMutex
	records map[core.ProductID]*ProductRecord
	order   []core.ProductID // LocalID -> ProductID; "" marks a removed slot
	locals  map[core.ProductID]core.LocalID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[core.ProductID]*ProductRecord),
		locals:  make(map[core.ProductID]core.LocalID),
	}
}

// Put stores a record, replacing any existing record with the same id.
// A record with an empty descriptor set is rejected and the store is left
// unchanged.
func (s *Store) Put(rec ProductRecord) error {
	if rec.Descriptors.Empty() {
		return ErrNoDescriptors
	}
	if err := rec.Descriptors.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.locals[rec.ID]; !ok {
		s.locals[rec.ID] = core.LocalID(len(s.order))
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = &rec
	return nil
}

// Get returns the record for id.
func (s *Store) Get(id core.ProductID) (ProductRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return ProductRecord{}, false
	}
	return *rec, true
}

// Remove deletes the record for id. The LocalID slot is retired, not reused.
func (s *Store) Remove(id core.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lid, ok := s.locals[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	delete(s.locals, id)
	s.order[lid] = ""
	return nil
}

// All returns all records in insertion order. The iteration order is
// deterministic, which keeps identification tie-breaking stable.
func (s *Store) All() []ProductRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProductRecord, 0, len(s.records))
	for _, id := range s.order {
		if id == "" {
			continue
		}
		out = append(out, *s.records[id])
	}
	return out
}

// Len returns the number of stored products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// LocalID returns the dense internal id assigned to a product.
func (s *Store) LocalID(id core.ProductID) (core.LocalID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lid, ok := s.locals[id]
	return lid, ok
}

// ByLocalID resolves a LocalID back to its record.
func (s *Store) ByLocalID(lid core.LocalID) (ProductRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(lid) >= len(s.order) || s.order[lid] == "" {
		return ProductRecord{}, false
	}
	return *s.records[s.order[lid]], true
}
