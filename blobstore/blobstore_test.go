package blobstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	ctx := context.Background()

	stores := map[string]func(t *testing.T) BlobStore{
		"Local":  func(t *testing.T) BlobStore { return NewLocalStore(t.TempDir()) },
		"Memory": func(t *testing.T) BlobStore { return NewMemoryStore() },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("PutOpenRoundTrip", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Put(ctx, "snapshots/v1.bin", strings.NewReader("hello"), 5))

				r, size, err := s.Open(ctx, "snapshots/v1.bin")
				require.NoError(t, err)
				defer r.Close()

				assert.Equal(t, int64(5), size)
				data, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Equal(t, "hello", string(data))
			})

			t.Run("OpenMissing", func(t *testing.T) {
				s := newStore(t)
				_, _, err := s.Open(ctx, "absent")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("PutReplaces", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Put(ctx, "a", strings.NewReader("one"), 3))
				require.NoError(t, s.Put(ctx, "a", strings.NewReader("two"), 3))

				r, _, err := s.Open(ctx, "a")
				require.NoError(t, err)
				defer r.Close()
				data, _ := io.ReadAll(r)
				assert.Equal(t, "two", string(data))
			})

			t.Run("ListSortedByPrefix", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Put(ctx, "snapshots/v2.bin", strings.NewReader("b"), 1))
				require.NoError(t, s.Put(ctx, "snapshots/v1.bin", strings.NewReader("a"), 1))
				require.NoError(t, s.Put(ctx, "other/x", strings.NewReader("c"), 1))

				names, err := s.List(ctx, "snapshots/")
				require.NoError(t, err)
				assert.Equal(t, []string{"snapshots/v1.bin", "snapshots/v2.bin"}, names)
			})

			t.Run("ListEmpty", func(t *testing.T) {
				s := newStore(t)
				names, err := s.List(ctx, "")
				require.NoError(t, err)
				assert.Empty(t, names)
			})

			t.Run("DeleteIsIdempotent", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Put(ctx, "a", strings.NewReader("x"), 1))
				require.NoError(t, s.Delete(ctx, "a"))
				require.NoError(t, s.Delete(ctx, "a"))

				_, _, err := s.Open(ctx, "a")
				assert.ErrorIs(t, err, ErrNotFound)
			})
		})
	}
}
