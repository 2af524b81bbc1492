// Package provider holds the market-data adapters. Every adapter returns
// *domain.ProviderError so callers can classify failures with errors.Is.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/httpx"
)

const (
	NameCoinGecko     = "coingecko"
	NameCoinMarketCap = "coinmarketcap"
	NameFMP           = "fmp"
)

// historyWindow is how far back historical queries reach.
const historyWindow = 365 * 24 * time.Hour

func endpoint(base, path string, q url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// getJSON performs one GET and maps transport, status and decode failures to
// provider errors.
func getJSON(ctx context.Context, c *httpx.Client, name, symbol, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.UpstreamUnavailable(name, symbol, fmt.Errorf("create request: %w", err))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c == nil {
		c = &httpx.Client{HTTP: http.DefaultClient}
	}
	if err := c.DoJSON(ctx, req, out); err != nil {
		if httpx.IsDecodeError(err) {
			return &domain.ProviderError{Kind: domain.KindUnexpectedShape, Provider: name, Symbol: symbol, Err: err}
		}
		// *url.Error embeds the request URL, which may carry an API key.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = fmt.Errorf("%s: %w", ue.Op, ue.Err)
		}
		return domain.UpstreamUnavailable(name, symbol, err)
	}
	return nil
}

func nowOr(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}
