package ledger

import (
	"reflect"
	"testing"
	"time"

	"github.com/stocksaga/stocksaga-api/internal/types"
)

func txn(symbol string, quantity int, price float64, date string) types.Transaction {
	d, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		panic(err)
	}
	return types.Transaction{
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
		TotalCost: price * float64(quantity),
		Date:      d.Add(12 * time.Hour), // mid-day execution time
	}
}

func testLedger() []types.Transaction {
	return []types.Transaction{
		txn("AAPL", 5, 100, "2024-01-05"),
		txn("TSLA", 2, 200, "2024-02-01"),
		txn("GOOGL", 10, 150, "2024-02-15"),
		txn("aapl", 3, 120, "2024-03-01"),
		txn("MSFT", 7, 300, "2024-03-10"),
	}
}

func symbols(txns []types.Transaction) []string {
	out := make([]string, len(txns))
	for i, t := range txns {
		out[i] = t.Symbol
	}
	return out
}

func TestFilterEmptyCriteriaReturnsFullSourceInOrder(t *testing.T) {
	source := testLedger()
	got := Filter(source, FilterCriteria{})

	if !reflect.DeepEqual(got, source) {
		t.Fatalf("empty criteria: got %v, want full source in order", symbols(got))
	}
}

func TestFilterIsPure(t *testing.T) {
	source := testLedger()
	criteria := FilterCriteria{Symbol: "a", MinQuantity: "3"}

	first := Filter(source, criteria)
	second := Filter(source, criteria)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated filter with identical inputs differs: %v vs %v", symbols(first), symbols(second))
	}

	// Filtering an already-filtered result with the same criteria is a no-op.
	again := Filter(first, criteria)
	if !reflect.DeepEqual(again, first) {
		t.Fatalf("refiltering the filtered set changed it: %v vs %v", symbols(again), symbols(first))
	}
}

func TestFilterSymbolSubstringCaseInsensitive(t *testing.T) {
	source := []types.Transaction{
		txn("AAPL", 5, 100, "2024-01-05"),
		txn("TSLA", 2, 200, "2024-02-01"),
	}

	got := Filter(source, FilterCriteria{Symbol: "aap"})
	if len(got) != 1 || got[0].Symbol != "AAPL" {
		t.Fatalf("symbol=aap: got %v, want exactly the AAPL row", symbols(got))
	}
}

func TestFilterBounds(t *testing.T) {
	source := testLedger()

	tests := []struct {
		name     string
		criteria FilterCriteria
		want     []string
	}{
		{"min quantity", FilterCriteria{MinQuantity: "5"}, []string{"AAPL", "GOOGL", "MSFT"}},
		{"max quantity", FilterCriteria{MaxQuantity: "3"}, []string{"TSLA", "aapl"}},
		{"price window", FilterCriteria{MinPrice: "110", MaxPrice: "210"}, []string{"TSLA", "GOOGL", "aapl"}},
		{"bounds inclusive", FilterCriteria{MinPrice: "100", MaxPrice: "100"}, []string{"AAPL"}},
		{"start date", FilterCriteria{StartDate: "2024-02-15"}, []string{"GOOGL", "aapl", "MSFT"}},
		{"end date", FilterCriteria{EndDate: "2024-02-01"}, []string{"AAPL", "TSLA"}},
		{"conjunction", FilterCriteria{Symbol: "aap", MinQuantity: "3"}, []string{"AAPL", "aapl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := symbols(Filter(source, tt.criteria))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterDateBoundsCoverWholeDay(t *testing.T) {
	day, _ := time.ParseInLocation(dateLayout, "2024-05-01", time.Local)
	early := types.Transaction{Symbol: "EARLY", Quantity: 1, Price: 1, Date: day}
	late := types.Transaction{Symbol: "LATE", Quantity: 1, Price: 1, Date: day.Add(24*time.Hour - time.Millisecond)}
	source := []types.Transaction{early, late}

	got := Filter(source, FilterCriteria{StartDate: "2024-05-01", EndDate: "2024-05-01"})
	if len(got) != 2 {
		t.Fatalf("same-day bounds should include 00:00:00.000 and 23:59:59.999, got %v", symbols(got))
	}
}

func TestFilterMalformedBoundsIgnored(t *testing.T) {
	source := testLedger()

	tests := []FilterCriteria{
		{MinQuantity: "not-a-number"},
		{MaxPrice: "12..5"},
		{StartDate: "yesterday"},
		{EndDate: "2024-13-45"},
		{MinQuantity: " "},
	}

	for _, criteria := range tests {
		got := Filter(source, criteria)
		if len(got) != len(source) {
			t.Errorf("criteria %+v: malformed bound must be ignored, got %d of %d rows",
				criteria, len(got), len(source))
		}
	}

	// A malformed bound alongside a valid one leaves the valid one active.
	got := Filter(source, FilterCriteria{MinQuantity: "lots", Symbol: "tsla"})
	if len(got) != 1 || got[0].Symbol != "TSLA" {
		t.Fatalf("valid constraint dropped next to a malformed one: %v", symbols(got))
	}
}

func TestFilterMonotonicPerAddedConstraint(t *testing.T) {
	source := testLedger()

	base := FilterCriteria{Symbol: "a"}
	tightened := []FilterCriteria{
		{Symbol: "a", MinQuantity: "4"},
		{Symbol: "a", MaxPrice: "150"},
		{Symbol: "a", StartDate: "2024-02-01"},
	}

	baseCount := len(Filter(source, base))
	for _, criteria := range tightened {
		if got := len(Filter(source, criteria)); got > baseCount {
			t.Errorf("adding a bound grew the result: %d > %d for %+v", got, baseCount, criteria)
		}
	}
}

func TestQuickRange(t *testing.T) {
	today, _ := time.ParseInLocation(dateLayout, "2024-06-15", time.Local)

	for _, n := range []int{10, 30, 1, 365} {
		c := FilterCriteria{StartDate: "2020-01-01", EndDate: "2020-12-31", Symbol: "keep"}
		c.quickRange(today, n)

		if c.EndDate != "2024-06-15" {
			t.Errorf("n=%d: endDate = %s, want today", n, c.EndDate)
		}
		wantStart := today.AddDate(0, 0, -n).Format(dateLayout)
		if c.StartDate != wantStart {
			t.Errorf("n=%d: startDate = %s, want %s", n, c.StartDate, wantStart)
		}
		if c.Symbol != "keep" {
			t.Errorf("n=%d: quick range touched a non-date field", n)
		}
	}
}

func TestQuickRangeUsesCurrentDay(t *testing.T) {
	var c FilterCriteria
	c.QuickRange(10)

	if c.EndDate != time.Now().Format(dateLayout) {
		t.Fatalf("endDate = %s, want today", c.EndDate)
	}
}
