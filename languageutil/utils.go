package languageutil

import (
	"math/rand"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var Adjs []string = []string{
	"classic",
	"everyday",
	"favourite",
	"relaxed",
	"tailored",
	"cosy",
	"crisp",
	"timeless",
	"weekend",
	"smart",
	"simple",
	"soft",
	"bold",
	"minimal",
	"vintage",
	"fresh",
	"light",
	"warm",
	"sleek",
	"casual",
}

// GarmentName makes a readable default name for an unnamed upload, such as
// "Relaxed Top".
func GarmentName(categorySlug string) string {
	return GarmentNameN(categorySlug, rand.Intn(len(Adjs)))
}

// GarmentNameN is GarmentName with a fixed adjective index.
func GarmentNameN(categorySlug string, n int) string {
	adj := Adjs[((n%len(Adjs))+len(Adjs))%len(Adjs)]
	return cases.Title(language.English).String(adj + " " + categorySlug)
}
