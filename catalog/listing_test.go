package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/prodmatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListing(t *testing.T) {
	t.Run("MissingFileIsEmpty", func(t *testing.T) {
		l := NewListing(filepath.Join(t.TempDir(), "products.csv"))

		entries, err := l.Read()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("WriteReadRoundTrip", func(t *testing.T) {
		l := NewListing(filepath.Join(t.TempDir(), "products.csv"))

		in := []ListingEntry{
			{ID: "a1", Name: "Coca-Cola"},
			{ID: "a2", Name: "Cola"},
		}
		require.NoError(t, l.WriteAll(in))

		out, err := l.Read()
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("RewritesInFull", func(t *testing.T) {
		l := NewListing(filepath.Join(t.TempDir(), "products.csv"))

		require.NoError(t, l.WriteAll([]ListingEntry{{ID: "a1", Name: "Coca-Cola"}}))
		require.NoError(t, l.WriteAll([]ListingEntry{{ID: "b1", Name: "Pepsi"}}))

		out, err := l.Read()
		require.NoError(t, err)
		assert.Equal(t, []ListingEntry{{ID: "b1", Name: "Pepsi"}}, out)
	})

	t.Run("ReconcileRepairsMissing", func(t *testing.T) {
		dir := t.TempDir()
		l := NewListing(filepath.Join(dir, "products.csv"))

		s := NewStore()
		require.NoError(t, s.Put(record("p1", "Cola", 1, 2)))
		require.NoError(t, s.Put(record("p2", "Pepsi", 3, 4)))

		// Simulate a partial failure: store saved, listing only has p1.
		require.NoError(t, l.WriteAll([]ListingEntry{{ID: "p1", Name: "Cola"}}))

		report, err := l.Reconcile(s)
		require.NoError(t, err)
		assert.True(t, report.Dirty())
		assert.Equal(t, []core.ProductID{"p2"}, report.Missing)

		out, err := l.Read()
		require.NoError(t, err)
		assert.Equal(t, []ListingEntry{
			{ID: "p1", Name: "Cola"},
			{ID: "p2", Name: "Pepsi"},
		}, out)
	})

	t.Run("ReconcileDropsOrphans", func(t *testing.T) {
		dir := t.TempDir()
		l := NewListing(filepath.Join(dir, "products.csv"))

		s := NewStore()
		require.NoError(t, s.Put(record("p1", "Cola", 1, 2)))

		require.NoError(t, l.WriteAll([]ListingEntry{
			{ID: "p1", Name: "Cola"},
			{ID: "ghost", Name: "Gone"},
		}))

		report, err := l.Reconcile(s)
		require.NoError(t, err)
		assert.Equal(t, []core.ProductID{"ghost"}, report.Orphaned)

		out, err := l.Read()
		require.NoError(t, err)
		assert.Equal(t, []ListingEntry{{ID: "p1", Name: "Cola"}}, out)
	})

	t.Run("ReconcileCleanIsNoop", func(t *testing.T) {
		dir := t.TempDir()
		l := NewListing(filepath.Join(dir, "products.csv"))

		s := NewStore()
		require.NoError(t, s.Put(record("p1", "Cola", 1, 2)))
		require.NoError(t, l.Sync(s))

		before, err := os.ReadFile(l.Path())
		require.NoError(t, err)

		report, err := l.Reconcile(s)
		require.NoError(t, err)
		assert.False(t, report.Dirty())

		after, err := os.ReadFile(l.Path())
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}
