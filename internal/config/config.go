package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	infraconfig "marketdata-service/internal/infrastructure/config"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port        string
	Storage     string
	DatabaseURL string
	SQLitePath  string
	// Cache
	CacheBackend string
	CacheTTL     time.Duration
	// Providers
	CoinGeckoAPIKey      string
	CoinGeckoBaseURL     string
	CoinGeckoProBaseURL  string
	CoinMarketCapAPIKey  string
	CoinMarketCapBaseURL string
	FMPAPIKey            string
	FMPBaseURL           string
	UpstreamTimeout      time.Duration
	UpstreamRetries      int
	// ProviderMode is "live" or "fake"; fake serves constant prices offline.
	ProviderMode string
	// ProviderChains maps an asset type to the ordered provider names tried for it.
	ProviderChains map[string][]string
	// Worker
	WorkerType        string
	WorkerPoll        time.Duration
	WorkerBatchSize   int
	WorkerConcurrency int
	WorkerJobTimeout  time.Duration
	// Redis (cache backend + idempotency)
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	IdempotencyBackend string
	IdempotencyTTL     time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func durMS(key string, defMS int) time.Duration {
	return time.Duration(atoiDef(getEnv(key, strconv.Itoa(defMS)), defMS)) * time.Millisecond
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadChains() map[string][]string {
	chains := make(map[string][]string, len(infraconfig.DefaultProviderChains))
	for assetType, def := range infraconfig.DefaultProviderChains {
		key := "PROVIDER_CHAIN_" + strings.ToUpper(assetType)
		chains[assetType] = splitCSV(getEnv(key, def))
	}
	return chains
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                  getEnv("ENV", "local"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Port:                 getEnv("PORT", infraconfig.DefaultHTTPPort),
		Storage:              getEnv("STORAGE", "pg"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		SQLitePath:           getEnv("SQLITE_PATH", "data/marketdata.db"),
		CacheBackend:         getEnv("CACHE_BACKEND", "memory"),
		CacheTTL:             durMS("CACHE_TTL_MS", int(infraconfig.DefaultCacheTTL/time.Millisecond)),
		CoinGeckoAPIKey:      getEnv("COINGECKO_API_KEY", ""),
		CoinGeckoBaseURL:     getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoProBaseURL:  getEnv("COINGECKO_PRO_BASE_URL", "https://pro-api.coingecko.com/api/v3"),
		CoinMarketCapAPIKey:  getEnv("COINMARKETCAP_API_KEY", ""),
		CoinMarketCapBaseURL: getEnv("COINMARKETCAP_BASE_URL", "https://pro-api.coinmarketcap.com"),
		FMPAPIKey:            getEnv("FMP_API_KEY", ""),
		FMPBaseURL:           getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api"),
		UpstreamTimeout:      durMS("UPSTREAM_TIMEOUT_MS", int(infraconfig.DefaultUpstreamTimeout/time.Millisecond)),
		UpstreamRetries:      atoiDef(getEnv("UPSTREAM_RETRIES", "0"), 0),
		ProviderMode:         getEnv("PROVIDER_MODE", "live"),
		ProviderChains:       loadChains(),
		WorkerType:           getEnv("WORKER_TYPE", "db"),
		WorkerPoll:           durMS("WORKER_POLL_MS", int(infraconfig.DefaultWorkerPoll/time.Millisecond)),
		WorkerBatchSize:      atoiDef(getEnv("WORKER_BATCH_LIMIT", "10"), infraconfig.DefaultWorkerBatch),
		WorkerConcurrency:    atoiDef(getEnv("WORKER_CONCURRENCY", "4"), infraconfig.DefaultWorkerConcurrency),
		WorkerJobTimeout:     durMS("WORKER_JOB_TIMEOUT_MS", int(infraconfig.DefaultWorkerJobTimeout/time.Millisecond)),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              atoiDef(getEnv("REDIS_DB", "0"), 0),
		IdempotencyBackend:   getEnv("IDEMPOTENCY_BACKEND", "redis"),
		IdempotencyTTL:       durMS("IDEMPOTENCY_TTL_MS", 86400000),
	}
}
