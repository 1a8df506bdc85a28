package catalog

import (
	"testing"

	"github.com/hupe1980/prodmatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, name string, values ...float32) ProductRecord {
	return ProductRecord{
		ID:          core.ProductID(id),
		Name:        name,
		Descriptors: core.Descriptors{Dim: 2, Data: values},
	}
}

func TestStore(t *testing.T) {
	t.Run("PutGet", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Put(record("p1", "Cola", 1, 2, 3, 4)))

		rec, ok := s.Get("p1")
		require.True(t, ok)
		assert.Equal(t, "Cola", rec.Name)
		assert.Equal(t, 2, rec.Descriptors.Count())

		_, ok = s.Get("nope")
		assert.False(t, ok)
	})

	t.Run("EmptyDescriptorsRejected", func(t *testing.T) {
		s := NewStore()
		err := s.Put(ProductRecord{ID: "p1", Name: "Cola"})
		assert.ErrorIs(t, err, ErrNoDescriptors)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("OverwriteKeepsLocalID", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Put(record("p1", "Cola", 1, 2)))
		require.NoError(t, s.Put(record("p2", "Pepsi", 3, 4)))

		lid, ok := s.LocalID("p1")
		require.True(t, ok)

		require.NoError(t, s.Put(record("p1", "Cola Zero", 5, 6)))

		lid2, ok := s.LocalID("p1")
		require.True(t, ok)
		assert.Equal(t, lid, lid2)

		rec, _ := s.Get("p1")
		assert.Equal(t, "Cola Zero", rec.Name)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("AllInsertionOrder", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Put(record("b", "B", 1, 2)))
		require.NoError(t, s.Put(record("a", "A", 3, 4)))
		require.NoError(t, s.Put(record("c", "C", 5, 6)))

		var ids []core.ProductID
		for _, r := range s.All() {
			ids = append(ids, r.ID)
		}
		assert.Equal(t, []core.ProductID{"b", "a", "c"}, ids)
	})

	t.Run("Remove", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.Put(record("p1", "Cola", 1, 2)))
		require.NoError(t, s.Put(record("p2", "Pepsi", 3, 4)))

		require.NoError(t, s.Remove("p1"))
		assert.Equal(t, 1, s.Len())
		_, ok := s.Get("p1")
		assert.False(t, ok)
		assert.ErrorIs(t, s.Remove("p1"), ErrNotFound)

		// p2's LocalID still resolves after p1 is gone.
		lid, ok := s.LocalID("p2")
		require.True(t, ok)
		rec, ok := s.ByLocalID(lid)
		require.True(t, ok)
		assert.Equal(t, core.ProductID("p2"), rec.ID)
	})
}
