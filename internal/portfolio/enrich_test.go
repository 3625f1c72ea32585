package portfolio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stocksaga/stocksaga-api/internal/market"
	"github.com/stocksaga/stocksaga-api/internal/types"
)

// stubProvider serves fixed prices; unknown symbols fail the lookup. An
// optional per-symbol gate blocks the lookup until released, which lets a
// test hold one batch open while a newer one settles.
type stubProvider struct {
	mu     sync.Mutex
	prices map[string]float64
	gates  map[string]chan struct{}
	calls  int
}

func (p *stubProvider) Price(ctx context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	p.calls++
	gate := p.gates[symbol]
	price, ok := p.prices[symbol]
	p.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if !ok {
		return 0, market.ErrSymbolNotFound
	}
	return price, nil
}

func holding(symbol string, quantity int, price float64) types.Holding {
	return types.Holding{Symbol: symbol, Quantity: quantity, Price: price}
}

func TestEnrichJoinsLivePrices(t *testing.T) {
	prices := &stubProvider{prices: map[string]float64{"AAPL": 180, "TSLA": 90}}
	e := NewEnricher(prices)

	rows := e.Enrich(context.Background(), []types.Holding{
		holding("AAPL", 10, 150),
		holding("TSLA", 4, 120),
	})

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	aapl := rows[0]
	if aapl.Symbol != "AAPL" || aapl.Quantity != 10 || aapl.Price != 150 {
		t.Fatalf("static fields not carried over: %+v", aapl)
	}
	if aapl.CurrentPrice == nil || *aapl.CurrentPrice != 180 {
		t.Fatalf("currentPrice = %v, want 180", aapl.CurrentPrice)
	}
	if aapl.TotalValue == nil || *aapl.TotalValue != 1800 {
		t.Fatalf("totalValue = %v, want 1800", aapl.TotalValue)
	}
	if aapl.ProfitLoss == nil || *aapl.ProfitLoss != 30 {
		t.Fatalf("profitLoss = %v, want per-unit 30", aapl.ProfitLoss)
	}

	tsla := rows[1]
	if tsla.ProfitLoss == nil || *tsla.ProfitLoss != -30 {
		t.Fatalf("tsla profitLoss = %v, want -30", tsla.ProfitLoss)
	}
}

func TestEnrichFailedLookupDoesNotAbortBatch(t *testing.T) {
	prices := &stubProvider{prices: map[string]float64{"AAPL": 180}}
	e := NewEnricher(prices)

	rows := e.Enrich(context.Background(), []types.Holding{
		holding("AAPL", 10, 150),
		holding("ZZZZ", 3, 50),
		holding("AAPL", 1, 175),
	})

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want all 3", len(rows))
	}

	bad := rows[1]
	if bad.Symbol != "ZZZZ" || bad.Quantity != 3 || bad.Price != 50 {
		t.Fatalf("failed row lost its static fields: %+v", bad)
	}
	if bad.CurrentPrice != nil || bad.TotalValue != nil || bad.ProfitLoss != nil {
		t.Fatalf("failed row must have nil derived fields: %+v", bad)
	}

	// Siblings around the failure still priced.
	if rows[0].CurrentPrice == nil || rows[2].CurrentPrice == nil {
		t.Fatalf("failure leaked into sibling rows: %+v", rows)
	}
}

func TestEnrichEmptyHoldings(t *testing.T) {
	e := NewEnricher(&stubProvider{})

	rows := e.Enrich(context.Background(), nil)
	if len(rows) != 0 {
		t.Fatalf("got %d rows for empty holdings", len(rows))
	}
}

func TestRefreshDropsSupersededBatch(t *testing.T) {
	gate := make(chan struct{})
	prices := &stubProvider{
		prices: map[string]float64{"SLOW": 10, "FAST": 20},
		gates:  map[string]chan struct{}{"SLOW": gate},
	}
	e := NewEnricher(prices)

	stale := make(chan []EnrichedHolding, 1)
	started := make(chan struct{})
	go func() {
		close(started)
		stale <- e.Refresh(context.Background(), []types.Holding{holding("SLOW", 1, 5)})
	}()
	<-started

	// Wait for the gated lookup to be in flight so the first generation is
	// claimed before the second run starts.
	for {
		prices.mu.Lock()
		inFlight := prices.calls > 0
		prices.mu.Unlock()
		if inFlight {
			break
		}
		time.Sleep(time.Millisecond)
	}

	fresh := e.Refresh(context.Background(), []types.Holding{holding("FAST", 2, 5)})
	if len(fresh) != 1 || fresh[0].Symbol != "FAST" {
		t.Fatalf("newer refresh not published: %+v", fresh)
	}

	close(gate)
	if got := <-stale; got != nil {
		t.Fatalf("superseded refresh published rows: %+v", got)
	}

	// The snapshot still holds the newer batch.
	snap := e.Snapshot()
	if len(snap) != 1 || snap[0].Symbol != "FAST" {
		t.Fatalf("stale batch overwrote the snapshot: %+v", snap)
	}
}

func TestClassify(t *testing.T) {
	up, down, flat := 12.5, -0.25, 0.0

	tests := []struct {
		name string
		in   *float64
		want string
	}{
		{"gain", &up, Gain},
		{"loss", &down, Loss},
		{"zero", &flat, Neutral},
		{"unpriced", nil, Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
