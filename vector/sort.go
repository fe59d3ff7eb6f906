package vector

import "sort"

// Sort order constants.
const (
	Ascending  = 1
	Descending = -1
)

// Sort returns the allocated entries ordered by key. The vector itself is
// not mutated: slots keep their positions and the chain keeps index order.
// order is Ascending or Descending; any non-negative value sorts ascending.
func (v *Vector) Sort(order int) []*Entry {
	if v == nil {
		return nil
	}
	v.lock()
	defer v.unlock()

	entries := make([]*Entry, 0, v.size)
	for i := v.head; i != none; i = v.slots[i].next {
		entries = append(entries, v.entryAt(i))
	}

	sign := 1
	if order < 0 {
		sign = -1
	}
	cmp := v.keyType.Compare
	sort.SliceStable(entries, func(a, b int) bool {
		return sign*cmp(v.slots[entries[a].index].key, v.slots[entries[b].index].key) < 0
	})
	return entries
}
