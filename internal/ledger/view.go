package ledger

import "github.com/stocksaga/stocksaga-api/internal/types"

// View derives the displayed transaction set from an immutable source
// collection, the current filter criteria and the active sort. Every change
// to criteria or sort re-derives the rows from the full source; the source
// itself is never mutated. Changing criteria does not reset the sort and
// vice versa.
type View struct {
	source   []types.Transaction
	criteria FilterCriteria
	sort     SortSpec
}

// NewView creates a view over a freshly fetched ledger.
func NewView(source []types.Transaction) *View {
	return &View{source: source}
}

// SetSource replaces the source collection, e.g. after a refetch.
func (v *View) SetSource(source []types.Transaction) {
	v.source = source
}

// SetCriteria replaces the filter criteria.
func (v *View) SetCriteria(c FilterCriteria) {
	v.criteria = c
}

// Criteria returns the current filter criteria.
func (v *View) Criteria() FilterCriteria {
	return v.criteria
}

// ClearFilters drops every constraint, restoring the full ledger.
func (v *View) ClearFilters() {
	v.criteria = FilterCriteria{}
}

// QuickRange sets the date bounds to the last n calendar days, leaving the
// remaining criteria untouched.
func (v *View) QuickRange(n int) {
	v.criteria.QuickRange(n)
}

// ToggleSort applies the sort selection policy for the given key.
func (v *View) ToggleSort(key SortKey) {
	v.sort.Toggle(key)
}

// Sort returns the active sort spec.
func (v *View) Sort() SortSpec {
	return v.sort
}

// Rows recomputes the displayed set: source, filtered, then sorted.
func (v *View) Rows() []types.Transaction {
	return Sort(Filter(v.source, v.criteria), v.sort)
}
