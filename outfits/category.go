package outfits

import "strings"

// Category is the fixed clothing category enumeration. The archetype rules
// below are written against exactly these six values.
type Category uint8

const (
	Top Category = iota + 1
	Bottom
	Dress
	Layer
	Bag
	Shoe
)

// Categories lists every category in role order (the order used by favourite keys).
var Categories = [...]Category{Top, Bottom, Dress, Layer, Bag, Shoe}

var categorySlugs = map[Category]string{
	Top:    "top",
	Bottom: "bottom",
	Dress:  "dress",
	Layer:  "layer",
	Bag:    "bag",
	Shoe:   "shoe",
}

func (c Category) Valid() bool {
	return c >= Top && c <= Shoe
}

// Slug is the lowercase name used in URLs, storage prefixes and request bodies.
func (c Category) Slug() string {
	if s, ok := categorySlugs[c]; ok {
		return s
	}
	return "unknown"
}

func (c Category) String() string {
	return c.Slug()
}

// ParseCategory accepts a slug in singular or plural form ("top", "Tops", "shoes", "dresses").
func ParseCategory(value string) (Category, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for c, slug := range categorySlugs {
		if value == slug || value == slug+"s" || value == slug+"es" {
			return c, true
		}
	}
	return 0, false
}
