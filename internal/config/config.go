package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	Environment  string `envconfig:"ENV" default:"development"`
	Debug        bool   `envconfig:"DEBUG" default:"false"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"stocksaga.db"`

	JWTSecret   string        `envconfig:"JWT_SECRET" default:"stocksaga-secret-key"`
	TokenExpiry time.Duration `envconfig:"TOKEN_EXPIRY" default:"24h"`
	OTPExpiry   time.Duration `envconfig:"OTP_EXPIRY" default:"10m"`

	MarketBaseURL string        `envconfig:"MARKET_BASE_URL" default:"https://finnhub.io/api/v1"`
	MarketAPIKey  string        `envconfig:"MARKET_API_KEY" default:""`
	QuoteCacheTTL time.Duration `envconfig:"QUOTE_CACHE_TTL" default:"60s"`

	// Cash credited to every new account in the simulated market.
	StartingBalance float64 `envconfig:"STARTING_BALANCE" default:"100000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
