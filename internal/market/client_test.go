package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fakeMarket(t *testing.T, quoteHits *int64) *httptest.Server {
	t.Helper()

	quotes := map[string]Quote{
		"AAPL": {Current: 178.5, High: 180, Low: 176, Open: 177, PrevClose: 175},
		"TSLA": {Current: 242.1, High: 245, Low: 240, Open: 241, PrevClose: 244},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		if quoteHits != nil {
			atomic.AddInt64(quoteHits, 1)
		}
		if r.URL.Query().Get("token") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		// Unknown symbols come back as an all-zero quote, not an error.
		json.NewEncoder(w).Encode(quotes[r.URL.Query().Get("symbol")])
	})
	mux.HandleFunc("/stock/profile2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Profile{
			Name:     "Apple Inc",
			Industry: "Technology",
			WebURL:   "https://www.apple.com/",
		})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string][]SearchResult{
			"result": {
				{Symbol: "AAPL", Description: "APPLE INC"},
				{Symbol: "AAPL.MX", Description: "APPLE INC"},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestQuote(t *testing.T) {
	srv := fakeMarket(t, nil)
	c := NewClient(srv.URL, "test-key", time.Minute)

	quote, err := c.Quote(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Current != 178.5 || quote.PrevClose != 175 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestQuoteUnknownSymbol(t *testing.T) {
	srv := fakeMarket(t, nil)
	c := NewClient(srv.URL, "test-key", time.Minute)

	if _, err := c.Quote(context.Background(), "ZZZZ"); !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("all-zero quote: got %v, want ErrSymbolNotFound", err)
	}
	if _, err := c.Quote(context.Background(), "  "); !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("blank symbol: got %v, want ErrSymbolNotFound", err)
	}
}

func TestQuoteCache(t *testing.T) {
	var hits int64
	srv := fakeMarket(t, &hits)
	c := NewClient(srv.URL, "test-key", time.Minute)

	for i := 0; i < 5; i++ {
		if _, err := c.Quote(context.Background(), "AAPL"); err != nil {
			t.Fatalf("quote %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Fatalf("upstream hit %d times, want 1 (cached)", got)
	}

	// Symbol normalization shares the cache entry.
	if _, err := c.Quote(context.Background(), " aapl "); err != nil {
		t.Fatalf("normalized quote: %v", err)
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Fatalf("case variant bypassed the cache: %d hits", got)
	}

	// Expired entries are refetched. Failed lookups were never cached, so a
	// different symbol goes upstream as usual.
	c.ttl = 0
	if _, err := c.Quote(context.Background(), "AAPL"); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Fatalf("expired entry not refetched: %d hits", got)
	}
}

func TestPrice(t *testing.T) {
	srv := fakeMarket(t, nil)
	c := NewClient(srv.URL, "test-key", time.Minute)

	price, err := c.Price(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price != 242.1 {
		t.Fatalf("price = %v, want 242.1", price)
	}
}

func TestProfile(t *testing.T) {
	srv := fakeMarket(t, nil)
	c := NewClient(srv.URL, "test-key", time.Minute)

	profile, err := c.Profile(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Name != "Apple Inc" || profile.Industry != "Technology" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestSearch(t *testing.T) {
	srv := fakeMarket(t, nil)
	c := NewClient(srv.URL, "test-key", time.Minute)

	results, err := c.Search(context.Background(), "apple")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 || results[0].Symbol != "AAPL" {
		t.Fatalf("unexpected results: %+v", results)
	}

	if _, err := c.Search(context.Background(), "  "); err == nil {
		t.Fatal("empty query must be rejected before hitting upstream")
	}
}

func TestUpstreamErrorSurfaces(t *testing.T) {
	srv := fakeMarket(t, nil)
	c := NewClient(srv.URL, "wrong-key", time.Minute)

	_, err := c.Quote(context.Background(), "AAPL")
	if err == nil || errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("http 401 must surface as a transport error, got %v", err)
	}
}
