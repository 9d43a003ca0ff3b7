package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// ListenAddr is the host:port the websocket server binds to.
	ListenAddr string

	// FeedSymbols is the universe the synthetic market data feed draws from.
	FeedSymbols []string
	// FeedInterval is the delay between generated ticks.
	FeedInterval time.Duration

	// TradeLogCap bounds the retained trade history; 0 keeps everything.
	TradeLogCap int
}

func Default() Config {
	return Config{
		ListenAddr:   ":8080",
		FeedSymbols:  []string{"AAPL", "GOOGL", "MSFT", "AMZN", "FB"},
		FeedInterval: 100 * time.Millisecond,
		TradeLogCap:  10000,
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and the
// environment. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("FEED_SYMBOLS"); v != "" {
		symbols := make([]string, 0)
		for _, symbol := range strings.Split(v, ",") {
			if symbol = strings.TrimSpace(symbol); symbol != "" {
				symbols = append(symbols, symbol)
			}
		}
		if len(symbols) > 0 {
			cfg.FeedSymbols = symbols
		}
	}
	if v := os.Getenv("FEED_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.FeedInterval = d
		}
	}
	if v := os.Getenv("TRADE_LOG_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.TradeLogCap = n
		}
	}

	return cfg
}
