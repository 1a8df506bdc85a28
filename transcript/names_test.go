package transcript

import (
	"testing"

	"github.com/hupe1980/prodmatch/catalog"
	"github.com/stretchr/testify/assert"
)

func TestAnnotateByName(t *testing.T) {
	entries := []catalog.ListingEntry{
		{ID: "A1", Name: "Coca-Cola"},
		{ID: "A2", Name: "Cola"},
	}

	t.Run("LongestNameWinsInside", func(t *testing.T) {
		got := AnnotateByName("Me gusta la Coca-Cola", entries)
		assert.Equal(t, "Me gusta la Coca-Cola (SKU:A1)", got)
	})

	t.Run("ShortNameStillMatchesAlone", func(t *testing.T) {
		got := AnnotateByName("Una Cola bien fria", entries)
		assert.Equal(t, "Una Cola (SKU:A2) bien fria", got)
	})

	t.Run("CaseInsensitiveByDefault", func(t *testing.T) {
		got := AnnotateByName("hoy compre una coca-cola", entries)
		assert.Equal(t, "hoy compre una coca-cola (SKU:A1)", got)
	})

	t.Run("CaseSensitive", func(t *testing.T) {
		got := AnnotateByName("hoy compre una coca-cola", entries, func(o *NameOptions) {
			o.CaseSensitive = true
		})
		assert.Equal(t, "hoy compre una coca-cola", got)
	})

	t.Run("MultipleOccurrences", func(t *testing.T) {
		got := AnnotateByName("Coca-Cola aqui y Coca-Cola alla", entries)
		assert.Equal(t, "Coca-Cola (SKU:A1) aqui y Coca-Cola (SKU:A1) alla", got)
	})

	t.Run("MultipleProducts", func(t *testing.T) {
		all := append(entries, catalog.ListingEntry{ID: "B1", Name: "Pepsi"})
		got := AnnotateByName("Los productos son Coca-Cola y Pepsi", all)
		assert.Equal(t, "Los productos son Coca-Cola (SKU:A1) y Pepsi (SKU:B1)", got)
	})

	t.Run("NoWholeWordInsideOtherWord", func(t *testing.T) {
		got := AnnotateByName("La Colaboracion es importante", entries)
		assert.Equal(t, "La Colaboracion es importante", got)
	})

	t.Run("EmptyCatalogPassesThrough", func(t *testing.T) {
		got := AnnotateByName("Me gusta la Coca-Cola", nil)
		assert.Equal(t, "Me gusta la Coca-Cola", got)
	})

	t.Run("NoMention", func(t *testing.T) {
		got := AnnotateByName("No hay productos aqui", entries)
		assert.Equal(t, "No hay productos aqui", got)
	})

	t.Run("InputEntriesNotMutated", func(t *testing.T) {
		in := []catalog.ListingEntry{
			{ID: "A2", Name: "Cola"},
			{ID: "A1", Name: "Coca-Cola"},
		}
		_ = AnnotateByName("Coca-Cola y Cola", in)
		assert.Equal(t, catalog.ListingEntry{ID: "A2", Name: "Cola"}, in[0])
	})
}
