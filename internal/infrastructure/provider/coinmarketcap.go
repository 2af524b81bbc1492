package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/httpx"
)

const cmcKeyHeader = "X-CMC_PRO_API_KEY"

type CoinMarketCap struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
	// Now bounds the historical window; defaults to time.Now.
	Now func() time.Time
}

var _ application.MarketDataProvider = (*CoinMarketCap)(nil)

func (p *CoinMarketCap) Name() string { return NameCoinMarketCap }

func (p *CoinMarketCap) header() http.Header {
	h := http.Header{}
	h.Set(cmcKeyHeader, p.APIKey)
	return h
}

type cmcUSD struct {
	Price *float64 `json:"price"`
}

type cmcLatestResp struct {
	Data map[string]struct {
		Quote map[string]cmcUSD `json:"quote"`
	} `json:"data"`
}

func (p *CoinMarketCap) FetchPrice(ctx context.Context, a domain.Asset) (string, error) {
	if p.APIKey == "" {
		return "", domain.MissingCredentials(NameCoinMarketCap, a.Symbol, "COINMARKETCAP_API_KEY")
	}
	symbol := strings.ToUpper(a.Symbol)
	u, err := endpoint(p.BaseURL, "/v1/cryptocurrency/quotes/latest", url.Values{"symbol": {symbol}})
	if err != nil {
		return "", domain.UpstreamUnavailable(NameCoinMarketCap, a.Symbol, err)
	}

	var body cmcLatestResp
	if err := getJSON(ctx, p.Client, NameCoinMarketCap, a.Symbol, u, p.header(), &body); err != nil {
		return "", err
	}
	entry, ok := body.Data[symbol]
	if !ok || entry.Quote["USD"].Price == nil {
		return "", domain.UnexpectedShape(NameCoinMarketCap, a.Symbol, "data."+symbol+".quote.USD.price missing")
	}
	return domain.FormatPrice(*entry.Quote["USD"].Price), nil
}

type cmcMapResp struct {
	Data []struct {
		ID     int    `json:"id"`
		Symbol string `json:"symbol"`
	} `json:"data"`
}

type cmcHistoricalResp struct {
	Data struct {
		Quotes []struct {
			Timestamp time.Time         `json:"timestamp"`
			Quote     map[string]cmcUSD `json:"quote"`
		} `json:"quotes"`
	} `json:"data"`
}

func (p *CoinMarketCap) FetchHistorical(ctx context.Context, a domain.Asset) ([]domain.MonthlyPoint, error) {
	if p.APIKey == "" {
		return nil, domain.MissingCredentials(NameCoinMarketCap, a.Symbol, "COINMARKETCAP_API_KEY")
	}
	id, err := p.lookupID(ctx, a)
	if err != nil {
		return nil, err
	}

	end := nowOr(p.Now)
	q := url.Values{}
	q.Set("id", strconv.Itoa(id))
	q.Set("time_start", strconv.FormatInt(end.Add(-historyWindow).Unix(), 10))
	q.Set("time_end", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "monthly")
	q.Set("convert", "USD")
	u, err := endpoint(p.BaseURL, "/v1/cryptocurrency/quotes/historical", q)
	if err != nil {
		return nil, domain.UpstreamUnavailable(NameCoinMarketCap, a.Symbol, err)
	}

	var body cmcHistoricalResp
	if err := getJSON(ctx, p.Client, NameCoinMarketCap, a.Symbol, u, p.header(), &body); err != nil {
		return nil, err
	}
	points := make([]PricePoint, 0, len(body.Data.Quotes))
	for _, row := range body.Data.Quotes {
		usd := row.Quote["USD"].Price
		if usd == nil {
			return nil, domain.UnexpectedShape(NameCoinMarketCap, a.Symbol, "quote.USD.price missing")
		}
		points = append(points, PricePoint{At: row.Timestamp, Price: *usd})
	}
	if len(points) == 0 {
		return nil, domain.UnexpectedShape(NameCoinMarketCap, a.Symbol, "no historical quotes")
	}
	return MonthlyReduce(points), nil
}

func (p *CoinMarketCap) lookupID(ctx context.Context, a domain.Asset) (int, error) {
	u, err := endpoint(p.BaseURL, "/v1/cryptocurrency/map", url.Values{"symbol": {strings.ToUpper(a.Symbol)}})
	if err != nil {
		return 0, domain.UpstreamUnavailable(NameCoinMarketCap, a.Symbol, err)
	}
	var body cmcMapResp
	if err := getJSON(ctx, p.Client, NameCoinMarketCap, a.Symbol, u, p.header(), &body); err != nil {
		return 0, err
	}
	if len(body.Data) == 0 {
		return 0, domain.UnexpectedShape(NameCoinMarketCap, a.Symbol, "no id in map response")
	}
	return body.Data[0].ID, nil
}
