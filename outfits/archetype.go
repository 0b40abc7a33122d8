package outfits

// ArchetypeID identifies one of the four outfit templates.
type ArchetypeID uint8

const (
	TopBottomLayer ArchetypeID = iota + 1
	DressLayer
	TopBottom
	DressOnly
)

// Archetype is a category-combination template. Roles are in the order the
// items of a generated outfit appear.
type Archetype struct {
	ID    ArchetypeID
	Roles []Category
}

var archetypes = []Archetype{
	{ID: TopBottomLayer, Roles: []Category{Top, Bottom, Layer, Bag, Shoe}},
	{ID: DressLayer, Roles: []Category{Dress, Layer, Bag, Shoe}},
	{ID: TopBottom, Roles: []Category{Top, Bottom, Bag, Shoe}},
	{ID: DressOnly, Roles: []Category{Dress, Bag, Shoe}},
}

// Archetypes returns the four archetypes in ascending id order.
func Archetypes() []Archetype {
	out := make([]Archetype, len(archetypes))
	for i, a := range archetypes {
		out[i] = Archetype{ID: a.ID, Roles: append([]Category(nil), a.Roles...)}
	}
	return out
}

// MatchArchetype finds the archetype whose roles are exactly the given
// categories in role order.
func MatchArchetype(categories []Category) (Archetype, bool) {
	for _, a := range archetypes {
		if len(a.Roles) != len(categories) {
			continue
		}
		matched := true
		for i, role := range a.Roles {
			if categories[i] != role {
				matched = false
				break
			}
		}
		if matched {
			return a, true
		}
	}
	return Archetype{}, false
}

// CombinationCount is the number of outfits Generate produces for the given
// bucket sizes. Callers use it to refuse pathological wardrobes before generating.
func CombinationCount(counts map[Category]int) int {
	total := 0
	for _, a := range archetypes {
		product := 1
		for _, role := range a.Roles {
			product *= counts[role]
		}
		total += product
	}
	return total
}

// CountItems returns how many items fall in each category.
func CountItems[T Item](items []T) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, item := range items {
		counts[item.ItemCategory()]++
	}
	return counts
}
