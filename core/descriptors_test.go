package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptors(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		d, err := NewDescriptors(3, []float32{1, 2, 3, 4, 5, 6})
		require.NoError(t, err)
		assert.Equal(t, 2, d.Count())
		assert.Equal(t, []float32{4, 5, 6}, d.At(1))
		assert.False(t, d.Empty())
	})

	t.Run("Empty", func(t *testing.T) {
		var d Descriptors
		assert.True(t, d.Empty())
		assert.Equal(t, 0, d.Count())
		require.NoError(t, d.Validate())
	})

	t.Run("RaggedData", func(t *testing.T) {
		_, err := NewDescriptors(4, []float32{1, 2, 3, 4, 5})
		assert.Error(t, err)
	})

	t.Run("InvalidDim", func(t *testing.T) {
		_, err := NewDescriptors(0, []float32{1})
		assert.Error(t, err)
	})

	t.Run("CloneIsDeep", func(t *testing.T) {
		d, err := NewDescriptors(2, []float32{1, 2, 3, 4})
		require.NoError(t, err)

		c := d.Clone()
		c.Data[0] = 9

		assert.Equal(t, float32(1), d.Data[0])
	})
}
