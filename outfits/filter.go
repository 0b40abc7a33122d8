package outfits

// DefaultPageSize is the page size of the outfit browser.
const DefaultPageSize = 12

// FilterByItems keeps an outfit only if, for every category present in filter,
// the outfit contains at least one of the filter items of that category.
// An empty filter keeps everything.
func FilterByItems[T Item](list []Outfit[T], filter []T) []Outfit[T] {
	if len(filter) == 0 {
		return list
	}
	wanted := make(map[Category]map[string]struct{})
	for _, item := range filter {
		c := item.ItemCategory()
		if wanted[c] == nil {
			wanted[c] = make(map[string]struct{})
		}
		wanted[c][item.ItemID()] = struct{}{}
	}

	out := make([]Outfit[T], 0, len(list))
	for _, o := range list {
		if matchesAll(o, wanted) {
			out = append(out, o)
		}
	}
	return out
}

func matchesAll[T Item](o Outfit[T], wanted map[Category]map[string]struct{}) bool {
	for c, ids := range wanted {
		found := false
		for _, item := range o.Items {
			if item.ItemCategory() != c {
				continue
			}
			if _, ok := ids[item.ItemID()]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FilterByKeys keeps outfits whose favourite key is in keys.
func FilterByKeys[T Item](list []Outfit[T], keys map[string]bool) []Outfit[T] {
	out := make([]Outfit[T], 0, len(keys))
	for _, o := range list {
		if keys[o.Key()] {
			out = append(out, o)
		}
	}
	return out
}

type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// Paginate slices all into 1-based pages. Out of range pages are empty.
func Paginate[T any](all []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(all)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	items := []T{}
	if start < total {
		end := min(start+pageSize, total)
		items = all[start:end]
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}
