package outfits

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type piece struct {
	id  string
	cat Category
}

func (p piece) ItemID() string         { return p.id }
func (p piece) ItemCategory() Category { return p.cat }

func wardrobe(counts map[Category]int) []piece {
	var items []piece
	for _, c := range Categories {
		for i := 1; i <= counts[c]; i++ {
			items = append(items, piece{id: fmt.Sprintf("%s%d", c.Slug(), i), cat: c})
		}
	}
	return items
}

func ids(o Outfit[piece]) []string {
	out := make([]string, len(o.Items))
	for i, item := range o.Items {
		out[i] = item.id
	}
	return out
}

func TestGenerateEmpty(t *testing.T) {
	out := Generate([]piece{}, DefaultSeed)
	require.NotNil(t, out)
	assert.Empty(t, out)

	assert.Empty(t, Generate[piece](nil, DefaultSeed))
}

func TestGenerateNoArchetypeSatisfied(t *testing.T) {
	// tops and bottoms only, no bags and shoes
	out := Generate(wardrobe(map[Category]int{Top: 3, Bottom: 2, Layer: 1, Dress: 2}), DefaultSeed)
	assert.Empty(t, out)
}

func TestGenerateSingleOfEachWithoutDress(t *testing.T) {
	items := []piece{
		{"T1", Top}, {"B1", Bottom}, {"L1", Layer}, {"Bg1", Bag}, {"S1", Shoe},
	}
	out := Generate(items, DefaultSeed)
	require.Len(t, out, 2)

	assert.Equal(t, TopBottomLayer, out[0].ArchetypeID)
	assert.Equal(t, []string{"T1", "B1", "L1", "Bg1", "S1"}, ids(out[0]))
	assert.Equal(t, TopBottom, out[1].ArchetypeID)
	assert.Equal(t, []string{"T1", "B1", "Bg1", "S1"}, ids(out[1]))
}

func TestGenerateTwoOfEach(t *testing.T) {
	out := Generate(wardrobe(map[Category]int{Top: 2, Bottom: 2, Dress: 2, Layer: 2, Bag: 2, Shoe: 2}), DefaultSeed)
	require.Len(t, out, 72)

	perArchetype := map[ArchetypeID]int{}
	for _, o := range out {
		perArchetype[o.ArchetypeID]++
	}
	assert.Equal(t, map[ArchetypeID]int{TopBottomLayer: 32, DressLayer: 16, TopBottom: 16, DressOnly: 8}, perArchetype)

	// reference order for seed 1
	assert.Equal(t, []string{"top2", "bottom1", "layer1", "bag1", "shoe2"}, ids(out[0]))
	assert.Equal(t, []string{"dress2", "layer2", "bag1", "shoe2"}, ids(out[1]))
	assert.Equal(t, []string{"top2", "bottom2", "bag2", "shoe1"}, ids(out[2]))
	assert.Equal(t, []string{"dress1", "bag2", "shoe2"}, ids(out[3]))
	assert.Equal(t, []string{"top2", "bottom2", "layer1", "bag2", "shoe2"}, ids(out[4]))
	assert.Equal(t, []string{"dress1", "layer1", "bag1", "shoe2"}, ids(out[5]))
}

func TestGenerateCountMatchesFormula(t *testing.T) {
	cases := []map[Category]int{
		{Top: 1, Bottom: 1, Dress: 1, Layer: 1, Bag: 1, Shoe: 1},
		{Top: 3, Bottom: 2, Dress: 4, Layer: 1, Bag: 2, Shoe: 3},
		{Top: 5, Bottom: 1, Dress: 1, Layer: 2, Bag: 1, Shoe: 2},
		{Top: 2, Bottom: 2, Bag: 1, Shoe: 1},
		{Dress: 3, Bag: 2, Shoe: 2, Layer: 2},
	}
	for _, counts := range cases {
		expected := counts[Top]*counts[Bottom]*counts[Layer]*counts[Bag]*counts[Shoe] +
			counts[Dress]*counts[Layer]*counts[Bag]*counts[Shoe] +
			counts[Top]*counts[Bottom]*counts[Bag]*counts[Shoe] +
			counts[Dress]*counts[Bag]*counts[Shoe]

		out := Generate(wardrobe(counts), DefaultSeed)
		assert.Len(t, out, expected, "counts %v", counts)
		assert.Equal(t, expected, CombinationCount(counts))
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	items := wardrobe(map[Category]int{Top: 3, Bottom: 2, Dress: 2, Layer: 2, Bag: 2, Shoe: 3})
	first := Generate(items, DefaultSeed)
	second := Generate(items, DefaultSeed)
	assert.Equal(t, first, second)

	other := Generate(items, 42)
	assert.Len(t, other, len(first))
	assert.NotEqual(t, first, other)
}

func TestGenerateDoesNotMutateInput(t *testing.T) {
	items := wardrobe(map[Category]int{Top: 2, Bottom: 2, Bag: 1, Shoe: 1})
	snapshot := append([]piece(nil), items...)
	Generate(items, DefaultSeed)
	assert.Equal(t, snapshot, items)
}

func TestGenerateInterleavesArchetypes(t *testing.T) {
	items := wardrobe(map[Category]int{Top: 2, Bottom: 2, Dress: 2, Layer: 2, Bag: 2, Shoe: 2})
	out := Generate(items, DefaultSeed)

	seen := map[ArchetypeID]bool{}
	for _, o := range out[:4] {
		assert.False(t, seen[o.ArchetypeID], "archetype %d repeated in first round", o.ArchetypeID)
		seen[o.ArchetypeID] = true
	}

	// rounds follow ascending archetype id until smaller groups run out
	assert.Equal(t, []ArchetypeID{1, 2, 3, 4, 1, 2, 3, 4}, []ArchetypeID{
		out[0].ArchetypeID, out[1].ArchetypeID, out[2].ArchetypeID, out[3].ArchetypeID,
		out[4].ArchetypeID, out[5].ArchetypeID, out[6].ArchetypeID, out[7].ArchetypeID,
	})
	// archetype 4 has 8 outfits, so from index 32 only archetypes 1..3 remain
	assert.Equal(t, TopBottomLayer, out[32].ArchetypeID)
	assert.Equal(t, DressLayer, out[33].ArchetypeID)
	// after 16 rounds only archetype 1 is left
	for _, o := range out[56:] {
		assert.Equal(t, TopBottomLayer, o.ArchetypeID)
	}
}

func TestGenerateRoleOrder(t *testing.T) {
	items := wardrobe(map[Category]int{Top: 2, Bottom: 1, Dress: 2, Layer: 2, Bag: 1, Shoe: 2})
	roles := map[ArchetypeID][]Category{}
	for _, a := range Archetypes() {
		roles[a.ID] = a.Roles
	}
	for _, o := range Generate(items, DefaultSeed) {
		got := make([]Category, len(o.Items))
		for i, item := range o.Items {
			got[i] = item.ItemCategory()
		}
		assert.Equal(t, roles[o.ArchetypeID], got)
	}
}

func TestGenerateEveryCombinationOnce(t *testing.T) {
	items := wardrobe(map[Category]int{Top: 3, Bottom: 2, Dress: 1, Layer: 2, Bag: 2, Shoe: 1})
	out := Generate(items, 7)
	seen := map[string]bool{}
	for _, o := range out {
		key := o.Key()
		assert.False(t, seen[key], "duplicate outfit %s", key)
		seen[key] = true
	}
	assert.Len(t, seen, CombinationCount(map[Category]int{Top: 3, Bottom: 2, Dress: 1, Layer: 2, Bag: 2, Shoe: 1}))
}

func TestGenerateKeepsInsertionOrderBeforeShuffle(t *testing.T) {
	items := []piece{
		{"T1", Top}, {"T2", Top}, {"B1", Bottom}, {"Bg1", Bag}, {"S1", Shoe}, {"D1", Dress},
	}
	out := Generate(items, DefaultSeed)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"T2", "B1", "Bg1", "S1"}, ids(out[0]))
	assert.Equal(t, []string{"D1", "Bg1", "S1"}, ids(out[1]))
	assert.Equal(t, []string{"T1", "B1", "Bg1", "S1"}, ids(out[2]))
}

func TestGenerateIgnoresUnknownCategory(t *testing.T) {
	items := []piece{{"T1", Top}, {"B1", Bottom}, {"Bg1", Bag}, {"S1", Shoe}, {"X1", Category(9)}}
	out := Generate(items, DefaultSeed)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"T1", "B1", "Bg1", "S1"}, ids(out[0]))
}
