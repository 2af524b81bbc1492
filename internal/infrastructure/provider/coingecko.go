package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/httpx"
)

// coinGeckoIDs maps tickers to CoinGecko coin ids.
var coinGeckoIDs = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"sol":   "solana",
	"bnb":   "binancecoin",
	"xrp":   "ripple",
	"ada":   "cardano",
	"doge":  "dogecoin",
	"dot":   "polkadot",
	"avax":  "avalanche-2",
	"matic": "matic-network",
	"link":  "chainlink",
	"ltc":   "litecoin",
	"trx":   "tron",
	"usdt":  "tether",
	"usdc":  "usd-coin",
}

// CoinGecko uses the pro host when APIKey is set and the public host otherwise.
type CoinGecko struct {
	BaseURL    string
	ProBaseURL string
	APIKey     string
	Client     *httpx.Client
}

var _ application.MarketDataProvider = (*CoinGecko)(nil)

func (p *CoinGecko) Name() string { return NameCoinGecko }

// CoinID resolves the coin id: lookup table, then asset.ID, then the
// lowercased symbol.
func CoinID(a domain.Asset) string {
	if id, ok := coinGeckoIDs[strings.ToLower(a.Symbol)]; ok {
		return id
	}
	if a.ID != "" {
		return a.ID
	}
	return strings.ToLower(a.Symbol)
}

func (p *CoinGecko) url(path string, q url.Values) (string, error) {
	base := p.BaseURL
	if p.APIKey != "" {
		base = p.ProBaseURL
		q.Set("x_cg_pro_api_key", p.APIKey)
	}
	return endpoint(base, path, q)
}

type cgCoinResp struct {
	MarketData *struct {
		CurrentPrice map[string]*float64 `json:"current_price"`
	} `json:"market_data"`
}

func (p *CoinGecko) FetchPrice(ctx context.Context, a domain.Asset) (string, error) {
	id := CoinID(a)
	q := url.Values{}
	q.Set("localization", "false")
	q.Set("tickers", "false")
	q.Set("community_data", "false")
	q.Set("developer_data", "false")
	u, err := p.url("/coins/"+url.PathEscape(id), q)
	if err != nil {
		return "", domain.UpstreamUnavailable(NameCoinGecko, a.Symbol, err)
	}

	var body cgCoinResp
	if err := getJSON(ctx, p.Client, NameCoinGecko, a.Symbol, u, nil, &body); err != nil {
		return "", err
	}
	if body.MarketData == nil || body.MarketData.CurrentPrice["usd"] == nil {
		return "", domain.UnexpectedShape(NameCoinGecko, a.Symbol, fmt.Sprintf("market_data.current_price.usd missing for %s", id))
	}
	return domain.FormatPrice(*body.MarketData.CurrentPrice["usd"]), nil
}

type cgChartResp struct {
	Prices [][]float64 `json:"prices"`
}

func (p *CoinGecko) FetchHistorical(ctx context.Context, a domain.Asset) ([]domain.MonthlyPoint, error) {
	id := CoinID(a)
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", "365")
	q.Set("interval", "daily")
	u, err := p.url("/coins/"+url.PathEscape(id)+"/market_chart", q)
	if err != nil {
		return nil, domain.UpstreamUnavailable(NameCoinGecko, a.Symbol, err)
	}

	var body cgChartResp
	if err := getJSON(ctx, p.Client, NameCoinGecko, a.Symbol, u, nil, &body); err != nil {
		return nil, err
	}
	if len(body.Prices) == 0 {
		return nil, domain.UnexpectedShape(NameCoinGecko, a.Symbol, "empty prices series")
	}
	points := make([]PricePoint, 0, len(body.Prices))
	for _, pair := range body.Prices {
		if len(pair) < 2 {
			return nil, domain.UnexpectedShape(NameCoinGecko, a.Symbol, "malformed price pair")
		}
		points = append(points, PricePoint{At: time.UnixMilli(int64(pair[0])).UTC(), Price: pair[1]})
	}
	return MonthlyReduce(points), nil
}
