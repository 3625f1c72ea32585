package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var ErrSymbolNotFound = errors.New("symbol not found")

// PriceProvider returns the current price for a ticker symbol. An unknown
// symbol is reported as ErrSymbolNotFound rather than a transport error, so
// batch callers can fail soft per item.
type PriceProvider interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// Quote is the current trading snapshot for a symbol.
type Quote struct {
	Current   float64 `json:"c"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Open      float64 `json:"o"`
	PrevClose float64 `json:"pc"`
}

// Profile is the company overview for a symbol.
type Profile struct {
	Name        string `json:"name"`
	Industry    string `json:"finnhubIndustry"`
	WebURL      string `json:"weburl"`
	Description string `json:"description"`
}

// SearchResult is one match from a symbol lookup.
type SearchResult struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
}

type cachedQuote struct {
	quote   Quote
	fetched time.Time
}

// Client talks to a Finnhub-compatible market data API. Quotes are cached
// for a short TTL since the portfolio view issues one lookup per holding.
type Client struct {
	baseURL string
	apiKey  string
	cli     *http.Client
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

func NewClient(baseURL, apiKey string, ttl time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		cli:     &http.Client{Timeout: 8 * time.Second},
		ttl:     ttl,
		cache:   make(map[string]cachedQuote),
	}
}

// Quote fetches the current trading snapshot for a symbol. The API signals
// an unknown symbol with an all-zero quote, mapped here to ErrSymbolNotFound.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrSymbolNotFound
	}

	c.mu.RLock()
	if cached, ok := c.cache[symbol]; ok && time.Since(cached.fetched) < c.ttl {
		c.mu.RUnlock()
		q := cached.quote
		return &q, nil
	}
	c.mu.RUnlock()

	var quote Quote
	if err := c.get(ctx, "/quote", url.Values{"symbol": {symbol}}, &quote); err != nil {
		return nil, err
	}
	if quote.Current <= 0 {
		return nil, ErrSymbolNotFound
	}

	c.mu.Lock()
	c.cache[symbol] = cachedQuote{quote: quote, fetched: time.Now()}
	c.mu.Unlock()

	return &quote, nil
}

// Price implements PriceProvider.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	quote, err := c.Quote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return quote.Current, nil
}

// Profile fetches the company overview for a symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (*Profile, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrSymbolNotFound
	}

	var profile Profile
	if err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Search looks up symbols matching a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty search query")
	}

	var raw struct {
		Result []SearchResult `json:"result"`
	}
	if err := c.get(ctx, "/search", url.Values{"q": {query}}, &raw); err != nil {
		return nil, err
	}
	return raw.Result, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if c.apiKey != "" {
		params.Set("token", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "stocksaga-api/1.0")

	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("market data http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
