package portfolio

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/stocksaga/stocksaga-api/internal/market"
	"github.com/stocksaga/stocksaga-api/internal/types"
)

// EnrichedHolding is a Holding joined with its live market price. The derived
// fields are nil when the price lookup failed for that row; sibling rows are
// unaffected. ProfitLoss is per unit, not per position.
type EnrichedHolding struct {
	Symbol       string   `json:"symbol"`
	Quantity     int      `json:"quantity"`
	Price        float64  `json:"price"`
	CurrentPrice *float64 `json:"currentPrice"`
	TotalValue   *float64 `json:"totalValue"`
	ProfitLoss   *float64 `json:"profitLoss"`
}

// Row classifications for display.
const (
	Gain    = "gain"
	Loss    = "loss"
	Neutral = "neutral"
)

// Classify labels a row by its per-unit profit or loss. A nil value (failed
// lookup) is neutral.
func Classify(profitLoss *float64) string {
	switch {
	case profitLoss == nil:
		return Neutral
	case *profitLoss > 0:
		return Gain
	case *profitLoss < 0:
		return Loss
	default:
		return Neutral
	}
}

// Enricher joins static holdings with live prices. Lookups for a batch run
// concurrently and the batch settles as a whole: every lookup finishes,
// success or failure, before the result is returned. A batch superseded by a
// newer one before settling is discarded rather than published.
type Enricher struct {
	prices market.PriceProvider

	mu     sync.Mutex
	gen    uint64
	latest []EnrichedHolding
}

func NewEnricher(prices market.PriceProvider) *Enricher {
	return &Enricher{prices: prices}
}

// Enrich fans out one price lookup per holding and waits for all of them to
// settle. A failed lookup yields a row with nil derived fields; it never
// aborts the batch. The result is rebuilt from scratch on every call.
func (e *Enricher) Enrich(ctx context.Context, holdings []types.Holding) []EnrichedHolding {
	out := make([]EnrichedHolding, len(holdings))

	var wg sync.WaitGroup
	for i, h := range holdings {
		wg.Add(1)
		go func(i int, h types.Holding) {
			defer wg.Done()

			row := EnrichedHolding{
				Symbol:   h.Symbol,
				Quantity: h.Quantity,
				Price:    h.Price,
			}

			price, err := e.prices.Price(ctx, h.Symbol)
			if err != nil {
				log.Warn().
					Err(err).
					Str("symbol", h.Symbol).
					Msg("price lookup failed, leaving holding unpriced")
				out[i] = row
				return
			}

			totalValue := price * float64(h.Quantity)
			profitLoss := price - h.Price
			row.CurrentPrice = &price
			row.TotalValue = &totalValue
			row.ProfitLoss = &profitLoss
			out[i] = row
		}(i, h)
	}
	wg.Wait()

	return out
}

// Refresh recomputes and publishes the enriched snapshot for a new holdings
// list. Each run is tagged with a generation; if a newer run started while
// this one was settling, its result is stale and dropped so an old batch can
// never overwrite a newer one. Returns the published rows, or nil if the run
// was superseded.
func (e *Enricher) Refresh(ctx context.Context, holdings []types.Holding) []EnrichedHolding {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	rows := e.Enrich(ctx, holdings)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return nil
	}
	e.latest = rows
	return rows
}

// Snapshot returns the most recently published enriched batch.
func (e *Enricher) Snapshot() []EnrichedHolding {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest
}
