package ledger

import (
	"sort"
	"strings"

	"github.com/stocksaga/stocksaga-api/internal/types"
)

// SortKey selects the field the history view is ordered by.
type SortKey string

const (
	SortNone     SortKey = "" // preserve fetch order
	SortSymbol   SortKey = "symbol"
	SortQuantity SortKey = "quantity"
	SortPrice    SortKey = "price"
	SortDate     SortKey = "date"
)

// Directions for SortSpec.
const (
	Asc  = "asc"
	Desc = "desc"
)

// SortSpec pairs a sort key with a direction. The zero value means the
// source order is kept as-is.
type SortSpec struct {
	Key       SortKey `form:"sort"`
	Direction string  `form:"direction"`
}

// Toggle applies the selection policy of the history view: picking the key
// already active flips the direction, picking a different key resets to
// ascending.
func (s *SortSpec) Toggle(key SortKey) {
	if s.Key == key && s.Direction == Asc {
		s.Direction = Desc
		return
	}
	s.Key = key
	s.Direction = Asc
}

// Sort returns a new slice ordered by the spec. The sort is stable: rows
// comparing equal keep their relative order from the input. An empty or
// unknown key returns the input order unchanged.
func Sort(txns []types.Transaction, spec SortSpec) []types.Transaction {
	out := make([]types.Transaction, len(txns))
	copy(out, txns)

	less := lessFunc(spec.Key)
	if less == nil {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		if spec.Direction == Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(key SortKey) func(a, b types.Transaction) bool {
	switch key {
	case SortSymbol:
		return func(a, b types.Transaction) bool {
			return strings.ToLower(a.Symbol) < strings.ToLower(b.Symbol)
		}
	case SortQuantity:
		return func(a, b types.Transaction) bool { return a.Quantity < b.Quantity }
	case SortPrice:
		return func(a, b types.Transaction) bool { return a.Price < b.Price }
	case SortDate:
		return func(a, b types.Transaction) bool { return a.Date.Before(b.Date) }
	default:
		return nil
	}
}
