package provider

import (
	"context"
	"net/url"
	"strings"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/httpx"
)

var commodityAliases = map[string]string{
	"XAU": "GOLD",
	"XAG": "SILVER",
	"XPT": "PLATINUM",
	"XPD": "PALLADIUM",
}

var indexAliases = map[string]string{
	"SPX": "SPY",
	"NDX": "QQQ",
	"DJI": "DIA",
	"RUT": "IWM",
}

// FMP serves stocks, fx, commodities and indices.
type FMP struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
	Now     func() time.Time
}

var _ application.MarketDataProvider = (*FMP)(nil)

func (p *FMP) Name() string { return NameFMP }

// FMPSymbol maps an asset to the symbol FMP expects.
func FMPSymbol(a domain.Asset) string {
	key := strings.ToUpper(strings.TrimSpace(a.Symbol))
	switch a.Type {
	case domain.AssetTypeFX:
		return a.FXSymbol()
	case domain.AssetTypeCommodity:
		if alias, ok := commodityAliases[key]; ok {
			return alias
		}
	case domain.AssetTypeIndex:
		if alias, ok := indexAliases[key]; ok {
			return alias
		}
	}
	return a.Symbol
}

type fmpQuote struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
}

func (p *FMP) FetchPrice(ctx context.Context, a domain.Asset) (string, error) {
	if p.APIKey == "" {
		return "", domain.MissingCredentials(NameFMP, a.Symbol, "FMP_API_KEY")
	}
	sym := FMPSymbol(a)
	u, err := endpoint(p.BaseURL, "/v3/quote/"+url.PathEscape(sym), url.Values{"apikey": {p.APIKey}})
	if err != nil {
		return "", domain.UpstreamUnavailable(NameFMP, a.Symbol, err)
	}

	var rows []fmpQuote
	if err := getJSON(ctx, p.Client, NameFMP, a.Symbol, u, nil, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", domain.UnexpectedShape(NameFMP, a.Symbol, "empty quote list for "+sym)
	}
	if rows[0].Price == nil {
		return "", domain.UnexpectedShape(NameFMP, a.Symbol, "quote price missing for "+sym)
	}
	return domain.FormatPrice(*rows[0].Price), nil
}

type fmpHistoricalResp struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"historical"`
}

func (p *FMP) FetchHistorical(ctx context.Context, a domain.Asset) ([]domain.MonthlyPoint, error) {
	if p.APIKey == "" {
		return nil, domain.MissingCredentials(NameFMP, a.Symbol, "FMP_API_KEY")
	}
	sym := FMPSymbol(a)
	to := nowOr(p.Now)
	q := url.Values{}
	q.Set("from", to.Add(-historyWindow).Format(time.DateOnly))
	q.Set("to", to.Format(time.DateOnly))
	q.Set("serietype", "line")
	q.Set("apikey", p.APIKey)
	u, err := endpoint(p.BaseURL, "/v3/historical-price-full/"+url.PathEscape(sym), q)
	if err != nil {
		return nil, domain.UpstreamUnavailable(NameFMP, a.Symbol, err)
	}

	var body fmpHistoricalResp
	if err := getJSON(ctx, p.Client, NameFMP, a.Symbol, u, nil, &body); err != nil {
		return nil, err
	}
	if len(body.Historical) == 0 {
		return nil, domain.UnexpectedShape(NameFMP, a.Symbol, "empty historical series for "+sym)
	}
	// Rows arrive newest first.
	points := make([]PricePoint, 0, len(body.Historical))
	for i := len(body.Historical) - 1; i >= 0; i-- {
		row := body.Historical[i]
		at, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, domain.UnexpectedShape(NameFMP, a.Symbol, "bad date "+row.Date)
		}
		points = append(points, PricePoint{At: at, Price: row.Close})
	}
	return MonthlyReduce(points), nil
}
