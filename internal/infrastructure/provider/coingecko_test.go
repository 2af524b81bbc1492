package provider_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/provider"

	"github.com/stretchr/testify/require"
)

const (
	cgPublic = "https://api.coingecko.com/api/v3"
	cgPro    = "https://pro-api.coingecko.com/api/v3"
)

func TestCoinGecko_FetchPrice_PublicHost(t *testing.T) {
	rec := newRecorder(map[string]reply{
		"/api/v3/coins/bitcoin": {200, `{"id":"bitcoin","market_data":{"current_price":{"usd":65432.78,"eur":60000}}}`},
	})
	p := &provider.CoinGecko{BaseURL: cgPublic, ProBaseURL: cgPro, Client: rec.client()}

	got, err := p.FetchPrice(context.Background(), domain.Asset{Symbol: "BTC", Type: domain.AssetTypeCrypto})
	require.NoError(t, err)
	require.Equal(t, "65433", got)
	require.Equal(t, "api.coingecko.com", rec.last().URL.Host)
	require.Empty(t, rec.last().URL.Query().Get("x_cg_pro_api_key"))
}

func TestCoinGecko_FetchPrice_ProHostWithKey(t *testing.T) {
	rec := newRecorder(map[string]reply{
		"/api/v3/coins/ethereum": {200, `{"market_data":{"current_price":{"usd":3120.4}}}`},
	})
	p := &provider.CoinGecko{BaseURL: cgPublic, ProBaseURL: cgPro, APIKey: "cg-key", Client: rec.client()}

	got, err := p.FetchPrice(context.Background(), domain.Asset{Symbol: "eth", Type: domain.AssetTypeCrypto})
	require.NoError(t, err)
	require.Equal(t, "3120", got)
	require.Equal(t, "pro-api.coingecko.com", rec.last().URL.Host)
	require.Equal(t, "cg-key", rec.last().URL.Query().Get("x_cg_pro_api_key"))
}

func TestCoinGecko_FetchPrice_MissingUSD(t *testing.T) {
	rec := newRecorder(map[string]reply{
		"/api/v3/coins/bitcoin": {200, `{"market_data":{"current_price":{"eur":1}}}`},
	})
	p := &provider.CoinGecko{BaseURL: cgPublic, Client: rec.client()}

	_, err := p.FetchPrice(context.Background(), domain.Asset{Symbol: "BTC", Type: domain.AssetTypeCrypto})
	require.ErrorIs(t, err, domain.ErrUnexpectedShape)
	require.Contains(t, err.Error(), "coingecko")
}

func TestCoinGecko_FetchPrice_UpstreamDown(t *testing.T) {
	rec := newRecorder(map[string]reply{
		"/api/v3/coins/bitcoin": {503, `busy`},
	})
	p := &provider.CoinGecko{BaseURL: cgPublic, Client: rec.client()}

	_, err := p.FetchPrice(context.Background(), domain.Asset{Symbol: "BTC", Type: domain.AssetTypeCrypto})
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	require.Equal(t, 1, rec.calls())
}

func TestCoinGecko_FetchPrice_InvalidJSON(t *testing.T) {
	rec := newRecorder(map[string]reply{
		"/api/v3/coins/bitcoin": {200, `<html>`},
	})
	p := &provider.CoinGecko{BaseURL: cgPublic, Client: rec.client()}

	_, err := p.FetchPrice(context.Background(), domain.Asset{Symbol: "BTC", Type: domain.AssetTypeCrypto})
	require.ErrorIs(t, err, domain.ErrUnexpectedShape)
}

func TestCoinID(t *testing.T) {
	require.Equal(t, "solana", provider.CoinID(domain.Asset{Symbol: "SOL"}))
	require.Equal(t, "pepe-token", provider.CoinID(domain.Asset{Symbol: "PEPE", ID: "pepe-token"}))
	require.Equal(t, "pepe", provider.CoinID(domain.Asset{Symbol: "PEPE"}))
}

func TestCoinGecko_FetchHistorical(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var pairs []string
	for i := 0; i < 425; i++ {
		d := start.AddDate(0, 0, i)
		pairs = append(pairs, fmt.Sprintf("[%d,%d]", d.UnixMilli(), i))
	}
	rec := newRecorder(map[string]reply{
		"/api/v3/coins/bitcoin/market_chart": {200, `{"prices":[` + strings.Join(pairs, ",") + `]}`},
	})
	p := &provider.CoinGecko{BaseURL: cgPublic, Client: rec.client()}

	got, err := p.FetchHistorical(context.Background(), domain.Asset{Symbol: "BTC", Type: domain.AssetTypeCrypto})
	require.NoError(t, err)
	require.Len(t, got, domain.MaxMonthlyPoints)
	require.Equal(t, "Feb", got[len(got)-1].Month)

	q := rec.last().URL.Query()
	require.Equal(t, "usd", q.Get("vs_currency"))
	require.Equal(t, "365", q.Get("days"))
	require.Equal(t, http.MethodGet, rec.last().Method)
}

func TestCoinGecko_FetchHistorical_MalformedPair(t *testing.T) {
	rec := newRecorder(map[string]reply{
		"/api/v3/coins/bitcoin/market_chart": {200, `{"prices":[[1700000000000]]}`},
	})
	p := &provider.CoinGecko{BaseURL: cgPublic, Client: rec.client()}

	_, err := p.FetchHistorical(context.Background(), domain.Asset{Symbol: "BTC", Type: domain.AssetTypeCrypto})
	require.ErrorIs(t, err, domain.ErrUnexpectedShape)
}
