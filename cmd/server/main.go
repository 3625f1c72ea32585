package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/stocksaga/stocksaga-api/internal/auth"
	"github.com/stocksaga/stocksaga-api/internal/config"
	"github.com/stocksaga/stocksaga-api/internal/database"
	"github.com/stocksaga/stocksaga-api/internal/ledger"
	"github.com/stocksaga/stocksaga-api/internal/market"
	"github.com/stocksaga/stocksaga-api/internal/portfolio"
	"github.com/stocksaga/stocksaga-api/internal/trading"
	"github.com/stocksaga/stocksaga-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trading API server with graceful shutdown
// support. It sets up all required services, database connections and routes.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	marketClient := market.NewClient(cfg.MarketBaseURL, cfg.MarketAPIKey, cfg.QuoteCacheTTL)
	marketHandlers := market.NewGinHandlers(marketClient)

	authService := auth.NewService(db, cfg)
	authHandlers := auth.NewGinHandlers(authService)

	ledgerService := ledger.NewService(db)
	ledgerHandlers := ledger.NewGinHandlers(ledgerService)

	portfolioService := portfolio.NewService(db, authService, marketClient)
	portfolioHandlers := portfolio.NewGinHandlers(portfolioService)

	tradingService := trading.NewService(db, marketClient)
	tradingHandlers := trading.NewGinHandlers(tradingService)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(cfg, router, authHandlers, ledgerHandlers, portfolioHandlers, tradingHandlers, marketHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers.
// Routes are grouped by access level:
// - Public routes: signup, OTP verification, login, stock lookup
// - Authenticated routes: portfolio, PIN verification, trades, history
func setupRoutes(
	cfg *config.Config,
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	ledgerHandlers *ledger.GinHandlers,
	portfolioHandlers *portfolio.GinHandlers,
	tradingHandlers *trading.GinHandlers,
	marketHandlers *market.GinHandlers,
) {
	// Public auth routes
	router.POST("/signup", authHandlers.SignupHandler())
	router.POST("/verify-otp", authHandlers.VerifyOTPHandler())
	router.POST("/login", authHandlers.LoginHandler())

	api := router.Group("/api")
	{
		// Stock lookup routes (public, rate limited)
		stocks := api.Group("/stocks")
		{
			stocks.GET("/price", marketHandlers.PriceHandler())
			stocks.GET("/search", marketHandlers.SearchHandler())
			stocks.GET("/:symbol", marketHandlers.DetailHandler())
		}

		// Account routes (session token required)
		user := api.Group("/user")
		user.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			user.GET("/portfolio", portfolioHandlers.PortfolioHandler())
			user.POST("/verify-pin", authHandlers.VerifyPINHandler())
		}

		// Trading routes (session token required)
		authed := api.Group("")
		authed.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			authed.POST("/transaction", tradingHandlers.TradeHandler())
			authed.GET("/transactions/history", ledgerHandlers.HistoryHandler())
		}
	}
}
