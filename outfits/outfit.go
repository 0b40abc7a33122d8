package outfits

import (
	"slices"
	"strings"
)

// Item is anything that can fill an outfit role: a catalog variant owned by the
// user, an uploaded garment image, etc. The generator reads nothing else from it.
type Item interface {
	ItemID() string
	ItemCategory() Category
}

// Outfit is one generated combination. Items follow the archetype's role order.
type Outfit[T Item] struct {
	ArchetypeID ArchetypeID `json:"archetypeId"`
	Items       []T         `json:"items"`
}

// Key is the favourite key of the outfit, see ItemsKey.
func (o Outfit[T]) Key() string {
	return ItemsKey(o.Items)
}

const emptyRole = "0"

// ItemsKey joins, in the order top, bottom, dress, layer, bag, shoe, the id of
// the item occupying each role or "0" when no item has that category.
func ItemsKey[T Item](items []T) string {
	parts := make([]string, len(Categories))
	for i := range parts {
		parts[i] = emptyRole
	}
	for _, item := range items {
		c := item.ItemCategory()
		if !c.Valid() {
			continue
		}
		parts[int(c)-1] = item.ItemID()
	}
	return strings.Join(parts, "-")
}

// NewOutfit arranges hand-picked items in role order and checks that they
// form exactly one archetype.
func NewOutfit[T Item](items []T) (Outfit[T], bool) {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return int(a.ItemCategory()) - int(b.ItemCategory())
	})
	categories := make([]Category, len(sorted))
	for i, item := range sorted {
		categories[i] = item.ItemCategory()
	}
	archetype, ok := MatchArchetype(categories)
	if !ok {
		return Outfit[T]{}, false
	}
	return Outfit[T]{ArchetypeID: archetype.ID, Items: sorted}, true
}
