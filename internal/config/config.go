package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr         string
	DatabaseURL  string
	JWTSecret    string
	RedisURL     string
	FilesBaseURL string
	// FilesDir is where uploaded record files live, laid out as
	// {collection}/{id}/{filename}.
	FilesDir string
	LogLevel string

	// PageSize bounds every list call issued to the record store.
	PageSize            int
	ReceiptCartRetries  int
	RetryBackoff        time.Duration
	Workers             int
	StockUpdateAttempts int
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Addr:                envString("STOREFRONT_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		RedisURL:            os.Getenv("REDIS_URL"),
		FilesBaseURL:        envString("FILES_BASE_URL", "http://127.0.0.1:8080"),
		FilesDir:            envString("FILES_DIR", "./uploads"),
		LogLevel:            envString("LOG_LEVEL", "info"),
		PageSize:            envInt("PAGE_SIZE", 50),
		ReceiptCartRetries:  envInt("RECEIPT_CART_RETRIES", 2),
		RetryBackoff:        envDuration("RETRY_BACKOFF", 500*time.Millisecond),
		Workers:             envInt("WORKERS", 8),
		StockUpdateAttempts: envInt("STOCK_UPDATE_ATTEMPTS", 5),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt falls back on missing, malformed or negative values.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
