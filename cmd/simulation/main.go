package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stocksaga/stocksaga-api/internal/auth"
	"github.com/stocksaga/stocksaga-api/internal/config"
	"github.com/stocksaga/stocksaga-api/internal/database"
	"github.com/stocksaga/stocksaga-api/internal/ledger"
	"github.com/stocksaga/stocksaga-api/internal/market"
	"github.com/stocksaga/stocksaga-api/internal/portfolio"
	"github.com/stocksaga/stocksaga-api/internal/trading"
	"github.com/stocksaga/stocksaga-api/internal/types"
	"github.com/stocksaga/stocksaga-api/pkg/middleware"
)

const (
	numTrades     = 25
	serverAddress = "http://localhost:8080"
	tradingPIN    = "4242"
)

var basePrices = map[string]float64{
	"AAPL":  178.50,
	"GOOGL": 141.20,
	"MSFT":  410.30,
	"AMZN":  182.70,
	"META":  505.10,
}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes min, max, mean, median, p95 and p99 durations.
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))
	median = rs.durations[len(rs.durations)/2]

	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// session holds the authenticated HTTP state for one simulated trader. The
// bearer token lives here, never in package globals: it is created on login
// and discarded when the session goes away.
type session struct {
	baseURL string
	email   string
	token   string
	client  *http.Client
	stats   map[string]*routeStats
}

func newSession(email string) *session {
	return &session{
		baseURL: serverAddress,
		email:   email,
		client:  &http.Client{Timeout: 10 * time.Second},
		stats: map[string]*routeStats{
			"signup":    {name: "Signup"},
			"verify":    {name: "Verify OTP"},
			"login":     {name: "Login"},
			"pin":       {name: "Verify PIN"},
			"trade":     {name: "Submit Trade"},
			"history":   {name: "History"},
			"portfolio": {name: "Portfolio"},
			"price":     {name: "Price Lookup"},
		},
	}
}

func (s *session) do(stat, method, path string, payload, out interface{}) error {
	start := time.Now()
	defer func() {
		s.stats[stat].addDuration(time.Since(start))
	}()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.stats[stat].failures++
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("path", path).Str("response", string(respBody)).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		s.stats[stat].failures++
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		envelope := struct {
			Success bool            `json:"success"`
			Data    json.RawMessage `json:"data"`
		}{}
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
		}
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w, body: %s", err, string(respBody))
		}
	}

	return nil
}

// login exchanges credentials for a session token and stores it.
func (s *session) login(password string) error {
	var token auth.TokenResponse
	if err := s.do("login", "POST", "/login", map[string]string{
		"email":    s.email,
		"password": password,
	}, &token); err != nil {
		return err
	}
	s.token = token.Token
	return nil
}

// trade verifies the PIN and submits one buy or sell.
func (s *session) trade(symbol, action string, quantity int) (*types.TradeResult, error) {
	if err := s.do("pin", "POST", "/api/user/verify-pin", map[string]string{"pin": tradingPIN}, nil); err != nil {
		return nil, err
	}

	var result types.TradeResult
	if err := s.do("trade", "POST", "/api/transaction", map[string]interface{}{
		"symbol":   symbol,
		"quantity": quantity,
		"action":   action,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// history fetches the transaction ledger with optional filter/sort params.
func (s *session) history(query string) ([]types.Transaction, error) {
	path := "/api/transactions/history"
	if query != "" {
		path += "?" + query
	}
	var resp types.HistoryResponse
	if err := s.do("history", "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

func (s *session) portfolio() (*portfolio.Response, error) {
	var resp portfolio.Response
	if err := s.do("portfolio", "GET", "/api/user/portfolio", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (s *session) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range s.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// fakeMarketServer serves a Finnhub-shaped quote/profile/search API with
// synthetic prices, so the simulation runs without a real market-data key.
func fakeMarketServer() *httptest.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.GET("/quote", func(c *gin.Context) {
		base, ok := basePrices[strings.ToUpper(c.Query("symbol"))]
		if !ok {
			// Unknown symbols quote as all zeros, the upstream convention.
			c.JSON(http.StatusOK, gin.H{"c": 0, "h": 0, "l": 0, "o": 0, "pc": 0})
			return
		}
		// Jitter the price a little per call.
		price := base * (1 + (rand.Float64()*0.04 - 0.02))
		c.JSON(http.StatusOK, gin.H{
			"c":  price,
			"h":  base * 1.03,
			"l":  base * 0.97,
			"o":  base,
			"pc": base,
		})
	})
	router.GET("/stock/profile2", func(c *gin.Context) {
		symbol := strings.ToUpper(c.Query("symbol"))
		c.JSON(http.StatusOK, gin.H{"name": symbol + " Inc", "finnhubIndustry": "Technology"})
	})
	router.GET("/search", func(c *gin.Context) {
		q := strings.ToUpper(c.Query("q"))
		var results []gin.H
		for symbol := range basePrices {
			if strings.Contains(symbol, q) {
				results = append(results, gin.H{"symbol": symbol, "description": symbol + " Inc"})
			}
		}
		c.JSON(http.StatusOK, gin.H{"result": results})
	})

	return httptest.NewServer(router)
}

// startServer initializes and starts the trading API server against the fake
// market feed. Returns the auth service so the simulation can read the OTP
// that would normally arrive by email.
func startServer(marketURL string) (*auth.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.MarketBaseURL = marketURL
	cfg.DatabasePath = "simulation.db"

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	marketClient := market.NewClient(cfg.MarketBaseURL, cfg.MarketAPIKey, cfg.QuoteCacheTTL)
	authService := auth.NewService(db, cfg)
	ledgerService := ledger.NewService(db)
	portfolioService := portfolio.NewService(db, authService, marketClient)
	tradingService := trading.NewService(db, marketClient)

	router := gin.Default()
	router.POST("/signup", auth.NewGinHandlers(authService).SignupHandler())
	router.POST("/verify-otp", auth.NewGinHandlers(authService).VerifyOTPHandler())
	router.POST("/login", auth.NewGinHandlers(authService).LoginHandler())

	api := router.Group("/api")
	{
		stocks := api.Group("/stocks")
		marketHandlers := market.NewGinHandlers(marketClient)
		{
			stocks.GET("/price", marketHandlers.PriceHandler())
			stocks.GET("/search", marketHandlers.SearchHandler())
			stocks.GET("/:symbol", marketHandlers.DetailHandler())
		}

		authed := api.Group("")
		authed.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			authed.GET("/user/portfolio", portfolio.NewGinHandlers(portfolioService).PortfolioHandler())
			authed.POST("/user/verify-pin", auth.NewGinHandlers(authService).VerifyPINHandler())
			authed.POST("/transaction", trading.NewGinHandlers(tradingService).TradeHandler())
			authed.GET("/transactions/history", ledger.NewGinHandlers(ledgerService).HistoryHandler())
		}
	}

	go func() {
		if err := router.Run(":8080"); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	return authService, nil
}

// main runs the trading simulation: a fresh trader signs up, verifies their
// email, logs in, trades for a while, then exercises the history view's
// filters, quick ranges and sorts against what they traded.
func main() {
	marketSrv := fakeMarketServer()
	defer marketSrv.Close()

	authService, err := startServer(marketSrv.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	email := fmt.Sprintf("trader-%s@example.com", uuid.New().String()[:8])
	password := "super-secret"
	sess := newSession(email)

	// Signup and email verification round trip
	if err := sess.do("signup", "POST", "/signup", map[string]string{
		"email":    email,
		"password": password,
		"pin":      tradingPIN,
	}, nil); err != nil {
		log.Fatal().Err(err).Msg("Signup failed")
	}

	otp, err := authService.PendingOTP(email)
	if err != nil {
		log.Fatal().Err(err).Msg("No pending OTP")
	}
	if err := sess.do("verify", "POST", "/verify-otp", map[string]string{
		"email": email,
		"otp":   otp,
	}, nil); err != nil {
		log.Fatal().Err(err).Msg("OTP verification failed")
	}

	if err := sess.login(password); err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	}
	log.Info().Str("email", email).Msg("Trader logged in")

	// Trade loop: mostly buys, occasional sells that may legitimately fail
	// when the position is too small.
	symbols := make([]string, 0, len(basePrices))
	for symbol := range basePrices {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	stats := struct {
		Trades      int
		FailedTrade int
		Bought      int
		Sold        int
		StartTime   time.Time
	}{StartTime: time.Now()}

	for i := 0; i < numTrades; i++ {
		symbol := symbols[rand.Intn(len(symbols))]
		action := types.ActionBuy
		if rand.Float64() < 0.3 {
			action = types.ActionSell
		}
		quantity := rand.Intn(10) + 1

		result, err := sess.trade(symbol, action, quantity)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Str("action", action).Msg("Trade rejected")
			stats.FailedTrade++
			continue
		}

		stats.Trades++
		if action == types.ActionBuy {
			stats.Bought += quantity
		} else {
			stats.Sold += quantity
		}

		log.Info().
			Str("symbol", symbol).
			Str("action", action).
			Int("quantity", quantity).
			Float64("balance", result.UpdatedBalance).
			Int("positions", len(result.UpdatedPortfolio)).
			Msg("Trade executed")

		time.Sleep(time.Duration(rand.Intn(100)) * time.Millisecond)
	}

	// Exercise the history view the way the dashboard does.
	full, err := sess.history("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch history")
	}

	bySymbol, _ := sess.history("symbol=aap")
	lastTen, _ := sess.history("days=10")
	priceDesc, _ := sess.history("sort=price&direction=desc")
	bounded, _ := sess.history("min_quantity=5&max_price=600")
	malformed, _ := sess.history("min_quantity=lots") // ignored, not an error

	log.Info().
		Int("full", len(full)).
		Int("symbol_aap", len(bySymbol)).
		Int("last_10_days", len(lastTen)).
		Int("price_desc", len(priceDesc)).
		Int("bounded", len(bounded)).
		Int("malformed_bound", len(malformed)).
		Msg("History views fetched")

	// Portfolio view with live enrichment.
	view, err := sess.portfolio()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch portfolio")
	}

	// Single price lookups, including one unknown symbol.
	_ = sess.do("price", "GET", "/api/stocks/price?symbol=AAPL", nil, nil)
	if err := sess.do("price", "GET", "/api/stocks/price?symbol=ZZZZ", nil, nil); err != nil {
		log.Info().Msg("Unknown symbol correctly rejected")
	}

	duration := time.Since(stats.StartTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("TRADING SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf(`
Trades accepted:  %d
Trades rejected:  %d
Shares bought:    %d
Shares sold:      %d
Ledger entries:   %d
Cash balance:     %.2f
Open positions:   %d
Duration:         %v
`, stats.Trades, stats.FailedTrade, stats.Bought, stats.Sold,
		len(full), view.Balance, len(view.Portfolio), duration.Round(time.Millisecond))

	for _, h := range view.Portfolio {
		label := portfolio.Classify(h.ProfitLoss)
		current := "-"
		if h.CurrentPrice != nil {
			current = fmt.Sprintf("%.2f", *h.CurrentPrice)
		}
		fmt.Printf("%-6s qty=%-4d avg=%-8.2f current=%-8s [%s]\n",
			h.Symbol, h.Quantity, h.Price, current, label)
	}

	fmt.Println(strings.Repeat("=", 80))
	sess.printPerformanceStats()
}
