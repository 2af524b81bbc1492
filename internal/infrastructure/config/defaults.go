package config

import "time"

const (
	DefaultHTTPPort          = "8080"
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultWorkerPoll        = 250 * time.Millisecond
	DefaultWorkerBatch       = 10
	DefaultWorkerConcurrency = 4
	DefaultWorkerJobTimeout  = 30 * time.Second
	DefaultPGMaxConns        = 5
	DefaultPGMinConns        = 1
	DefaultCacheTTL          = 30 * time.Minute
	DefaultUpstreamTimeout   = 10 * time.Second
)

// DefaultProviderChains is the provider order per asset type.
// Non-crypto assets have a single provider unless configured otherwise.
var DefaultProviderChains = map[string]string{
	"crypto":    "coingecko,coinmarketcap",
	"stock":     "fmp",
	"fx":        "fmp",
	"commodity": "fmp",
	"index":     "fmp",
}
