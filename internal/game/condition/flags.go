package condition

// FlagTable holds reference-counted booleans for the flagged categories.
// Only the Registry mutates it, once per apply and once per removal.
type FlagTable struct {
	counts map[Category]int
}

func newFlagTable() *FlagTable {
	return &FlagTable{counts: make(map[Category]int)}
}

func (f *FlagTable) increment(c Category) {
	if !c.Flagged() {
		return
	}
	f.counts[c]++
}

// decrement never takes a count below zero.
func (f *FlagTable) decrement(c Category) {
	if f.counts[c] <= 1 {
		delete(f.counts, c)
		return
	}
	f.counts[c]--
}

// IsSet reports whether any effect of category c is active.
func (f *FlagTable) IsSet(c Category) bool {
	return f.counts[c] > 0
}

// Count returns the reference count for c.
//
// Postcondition: Returns >= 0.
func (f *FlagTable) Count(c Category) int {
	return f.counts[c]
}

// Active returns the set categories in FlaggedCategories order.
func (f *FlagTable) Active() []Category {
	var out []Category
	for _, c := range FlaggedCategories() {
		if f.counts[c] > 0 {
			out = append(out, c)
		}
	}
	return out
}
