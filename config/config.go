// Package config loads process configuration from the environment,
// following the teacher's own os.Getenv convention (provider/binance/sync-api.go,
// provider/kucoin/sync-api.go) rather than a flags or YAML-file library.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/singhparshant/Aggregated-Orderbook/domain"
)

type Config struct {
	Symbol *domain.MarketSymbol

	RPCAddr     string
	MetricsAddr string

	PriceScale   uint
	TopN         int
	RetentionCap int

	BinanceWSEndpoint    string
	BinanceRESTEndpoint  string
	BitstampWSEndpoint   string
	BitstampRESTEndpoint string

	SnapshotTimeout time.Duration
	WSIdleTimeout   time.Duration
}

// Load reads process configuration from the environment, first loading a
// local .env file if one is present (godotenv.Load is a no-op error the
// caller can ignore when none exists, same as the teacher's test helpers).
// It panics on a malformed SYMBOL since there is no sane default to fall
// back to for an unparseable trading pair.
func Load() Config {
	_ = godotenv.Load()

	symbol, err := domain.NewMarketSymbolFromString(getString("SYMBOL", "eth_usdt"))
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}

	return Config{
		Symbol: symbol,

		RPCAddr:     getString("RPC_ADDR", "127.0.0.1:5002"),
		MetricsAddr: getString("METRICS_ADDR", "127.0.0.1:9090"),

		PriceScale:   uint(getInt("PRICE_SCALE", 8)),
		TopN:         getInt("TOP_N", 10),
		RetentionCap: getInt("RETENTION_CAP", 0),

		BinanceWSEndpoint:    getString("BINANCE_WS_ENDPOINT", "wss://stream.binance.com:9443/ws"),
		BinanceRESTEndpoint:  getString("BINANCE_REST_ENDPOINT", "https://api.binance.com/api/v3/depth"),
		BitstampWSEndpoint:   getString("BITSTAMP_WS_ENDPOINT", "wss://ws.bitstamp.net"),
		BitstampRESTEndpoint: getString("BITSTAMP_REST_ENDPOINT", "https://www.bitstamp.net/api/v2/order_book"),

		SnapshotTimeout: getDuration("SNAPSHOT_TIMEOUT", 5*time.Second),
		WSIdleTimeout:   getDuration("WS_IDLE_TIMEOUT", 30*time.Second),
	}
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
