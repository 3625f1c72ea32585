package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/stocksaga/stocksaga-api/internal/types"
)

const dateLayout = "2006-01-02"

// FilterCriteria is the query object for the transaction history view. Fields
// carry the raw strings handed over by the query layer; an empty field imposes
// no constraint. A bound that does not parse as a number (or date) is treated
// as absent: it never fails the pass and never excludes rows on its own.
type FilterCriteria struct {
	Symbol      string `form:"symbol"`
	MinQuantity string `form:"min_quantity"`
	MaxQuantity string `form:"max_quantity"`
	MinPrice    string `form:"min_price"`
	MaxPrice    string `form:"max_price"`
	StartDate   string `form:"start_date"` // YYYY-MM-DD
	EndDate     string `form:"end_date"`   // YYYY-MM-DD
}

// IsZero reports whether no constraint is set.
func (c FilterCriteria) IsZero() bool {
	return c == FilterCriteria{}
}

// QuickRange overwrites the date bounds to cover the last n calendar days,
// endDate = today, startDate = today minus n days. Other fields are untouched.
func (c *FilterCriteria) QuickRange(n int) {
	c.quickRange(time.Now(), n)
}

func (c *FilterCriteria) quickRange(today time.Time, n int) {
	c.StartDate = today.AddDate(0, 0, -n).Format(dateLayout)
	c.EndDate = today.Format(dateLayout)
}

// Filter returns the subsequence of source satisfying every active constraint,
// in source order. It is a pure function of its inputs: the result is always
// recomputed from the full source collection, never from a previous result.
func Filter(source []types.Transaction, c FilterCriteria) []types.Transaction {
	out := make([]types.Transaction, 0, len(source))
	for _, t := range source {
		if matches(t, c) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t types.Transaction, c FilterCriteria) bool {
	if c.Symbol != "" && !strings.Contains(strings.ToLower(t.Symbol), strings.ToLower(c.Symbol)) {
		return false
	}
	if min, ok := numericBound(c.MinQuantity); ok && float64(t.Quantity) < min {
		return false
	}
	if max, ok := numericBound(c.MaxQuantity); ok && float64(t.Quantity) > max {
		return false
	}
	if min, ok := numericBound(c.MinPrice); ok && t.Price < min {
		return false
	}
	if max, ok := numericBound(c.MaxPrice); ok && t.Price > max {
		return false
	}
	if start, ok := dayStart(c.StartDate); ok && t.Date.Before(start) {
		return false
	}
	if end, ok := dayEnd(c.EndDate); ok && t.Date.After(end) {
		return false
	}
	return true
}

// numericBound parses a min/max field. Empty or malformed input deactivates
// the bound.
func numericBound(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// dayStart resolves a date field to 00:00:00.000 local on that calendar day.
func dayStart(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// dayEnd resolves a date field to 23:59:59.999 local on that calendar day.
func dayEnd(s string) (time.Time, bool) {
	t, ok := dayStart(s)
	if !ok {
		return time.Time{}, false
	}
	return t.Add(24*time.Hour - time.Millisecond), true
}
