package outfits

// DefaultSeed is the base seed used when the caller has no preference. Group
// order for archetype a is driven by DefaultSeed + a.
const DefaultSeed uint32 = 1

// Generate builds every outfit the archetypes allow from items and returns them
// in a reproducible, interleaved order:
//
//  1. items are bucketed by category, keeping input order;
//  2. each archetype whose roles all have items expands into the Cartesian
//     product of those buckets (first role varies slowest);
//  3. each archetype group is shuffled with seed+archetypeID;
//  4. groups are merged round-robin in ascending archetype id.
//
// No partial outfits are produced. Empty input, or input that can't satisfy
// any archetype, yields an empty (non-nil) slice.
func Generate[T Item](items []T, seed uint32) []Outfit[T] {
	buckets := Partition(items)

	groups := make([][]Outfit[T], len(archetypes))
	for i, a := range archetypes {
		groups[i] = expand(a, buckets)
		Shuffle(groups[i], seed+uint32(a.ID))
	}
	return interleave(groups)
}

// Partition splits items by category. Items with an unknown category are dropped.
func Partition[T Item](items []T) map[Category][]T {
	buckets := make(map[Category][]T, len(Categories))
	for _, item := range items {
		c := item.ItemCategory()
		if !c.Valid() {
			continue
		}
		buckets[c] = append(buckets[c], item)
	}
	return buckets
}

func expand[T Item](a Archetype, buckets map[Category][]T) []Outfit[T] {
	pools := make([][]T, len(a.Roles))
	total := 1
	for i, role := range a.Roles {
		pools[i] = buckets[role]
		if len(pools[i]) == 0 {
			return nil
		}
		total *= len(pools[i])
	}

	out := make([]Outfit[T], 0, total)
	idx := make([]int, len(pools))
	for {
		items := make([]T, len(pools))
		for r, pool := range pools {
			items[r] = pool[idx[r]]
		}
		out = append(out, Outfit[T]{ArchetypeID: a.ID, Items: items})

		// odometer step, innermost role first
		r := len(idx) - 1
		for ; r >= 0; r-- {
			idx[r]++
			if idx[r] < len(pools[r]) {
				break
			}
			idx[r] = 0
		}
		if r < 0 {
			return out
		}
	}
}

func interleave[T Item](groups [][]Outfit[T]) []Outfit[T] {
	maxGroupSize, total := 0, 0
	for _, g := range groups {
		total += len(g)
		if len(g) > maxGroupSize {
			maxGroupSize = len(g)
		}
	}
	out := make([]Outfit[T], 0, total)
	for i := 0; i < maxGroupSize; i++ {
		for _, g := range groups {
			if i < len(g) {
				out = append(out, g[i])
			}
		}
	}
	return out
}
