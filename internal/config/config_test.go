package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CACHE_TTL_MS", "")
	t.Setenv("PROVIDER_CHAIN_CRYPTO", "")
	t.Setenv("PROVIDER_CHAIN_STOCK", "")

	cfg := Load()
	require.Equal(t, 30*time.Minute, cfg.CacheTTL)
	require.Equal(t, []string{"coingecko", "coinmarketcap"}, cfg.ProviderChains["crypto"])
	require.Equal(t, []string{"fmp"}, cfg.ProviderChains["stock"])
	require.Equal(t, []string{"fmp"}, cfg.ProviderChains["fx"])
	require.Equal(t, 0, cfg.UpstreamRetries)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CACHE_TTL_MS", "60000")
	t.Setenv("PROVIDER_CHAIN_STOCK", "fmp, coingecko ,")
	t.Setenv("FMP_API_KEY", "k")

	cfg := Load()
	require.Equal(t, time.Minute, cfg.CacheTTL)
	require.Equal(t, []string{"fmp", "coingecko"}, cfg.ProviderChains["stock"])
	require.Equal(t, "k", cfg.FMPAPIKey)
}
