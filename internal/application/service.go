package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketdata-service/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	kindPrice      = "price"
	kindHistorical = "historical"

	// SourcePreset marks a price taken from Asset.PriceUSD.
	SourcePreset = "preset"

	defaultFetchTimeout = 30 * time.Second
)

// ResolvedPrice is a formatted USD price and the provider that produced it.
type ResolvedPrice struct {
	Price    string
	Provider string
}

// MarketDataService resolves prices and monthly histories through the
// provider chain configured for each asset type, consulting the caches
// before any outbound call.
type MarketDataService struct {
	providers map[string]MarketDataProvider
	chains    map[domain.AssetType][]string
	prices    Cache[string]
	history   Cache[[]domain.MonthlyPoint]
	log       *zap.Logger

	// fetchTimeout bounds a shared fetch, which does not follow any one caller's ctx.
	fetchTimeout time.Duration
	inflight     singleflight.Group
}

var _ PriceResolver = (*MarketDataService)(nil)

type ServiceOption func(*MarketDataService)

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *MarketDataService) { s.log = l }
}

func WithFetchTimeout(d time.Duration) ServiceOption {
	return func(s *MarketDataService) { s.fetchTimeout = d }
}

func NewMarketDataService(
	providers []MarketDataProvider,
	chains map[domain.AssetType][]string,
	prices Cache[string],
	history Cache[[]domain.MonthlyPoint],
	opts ...ServiceOption,
) (*MarketDataService, error) {
	s := &MarketDataService{
		providers:    make(map[string]MarketDataProvider, len(providers)),
		chains:       chains,
		prices:       prices,
		history:      history,
		fetchTimeout: defaultFetchTimeout,
	}
	for _, p := range providers {
		s.providers[strings.ToLower(p.Name())] = p
	}
	for assetType, chain := range chains {
		for _, name := range chain {
			if _, ok := s.providers[name]; !ok {
				return nil, fmt.Errorf("provider chain for %s: unknown provider %q", assetType, name)
			}
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s, nil
}

// CacheKey builds the cache key {provider}-{kind}-{lowercased symbol}.
func CacheKey(provider, kind, symbol string) string {
	return provider + "-" + kind + "-" + strings.ToLower(symbol)
}

// GetAssetPrice returns the formatted USD price of asset.
func (s *MarketDataService) GetAssetPrice(ctx context.Context, asset domain.Asset) (string, error) {
	rp, err := s.ResolvePrice(ctx, asset)
	if err != nil {
		return "", err
	}
	return rp.Price, nil
}

func (s *MarketDataService) ResolvePrice(ctx context.Context, asset domain.Asset) (ResolvedPrice, error) {
	if asset.PriceUSD != "" {
		return ResolvedPrice{Price: asset.PriceUSD, Provider: SourcePreset}, nil
	}
	price, provider, err := walkChain(ctx, s, asset, kindPrice, s.prices,
		func(ctx context.Context, p MarketDataProvider, a domain.Asset) (string, error) {
			return p.FetchPrice(ctx, a)
		})
	if err != nil {
		return ResolvedPrice{}, err
	}
	return ResolvedPrice{Price: price, Provider: provider}, nil
}

// GetAssetHistoricalData returns up to 12 monthly points, oldest first.
// There is no pre-known series, so PriceUSD is ignored.
func (s *MarketDataService) GetAssetHistoricalData(ctx context.Context, asset domain.Asset) ([]domain.MonthlyPoint, error) {
	points, _, err := walkChain(ctx, s, asset, kindHistorical, s.history,
		func(ctx context.Context, p MarketDataProvider, a domain.Asset) ([]domain.MonthlyPoint, error) {
			return p.FetchHistorical(ctx, a)
		})
	if err != nil {
		return nil, err
	}
	return domain.LastMonthlyPoints(points), nil
}

// Chain returns the provider order configured for t.
func (s *MarketDataService) Chain(t domain.AssetType) []string {
	return append([]string(nil), s.chains[t]...)
}

type fetchFunc[V any] func(ctx context.Context, p MarketDataProvider, a domain.Asset) (V, error)

// walkChain tries each provider of the asset's chain in order. A
// single-provider chain returns that provider's error unchanged; a longer
// exhausted chain returns *domain.UnavailableError.
func walkChain[V any](ctx context.Context, s *MarketDataService, asset domain.Asset, kind string, c Cache[V], fetch fetchFunc[V]) (V, string, error) {
	var zero V
	chain := s.chains[asset.Type]
	if len(chain) == 0 {
		return zero, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedAssetType, asset.Type)
	}
	log := s.log.With(
		zap.String("symbol", asset.Symbol),
		zap.String("type", string(asset.Type)),
	)

	attempts := make([]error, 0, len(chain))
	for i, name := range chain {
		plog := log.With(zap.String("provider", name))
		plog.Info(kind + ".attempt")
		v, err := cachedFetch(ctx, s, s.providers[name], asset, kind, c, fetch, plog)
		if err == nil {
			plog.Info(kind + ".success")
			return v, name, nil
		}
		if ctx.Err() != nil {
			// caller gone
			return zero, "", err
		}
		plog.Warn(kind+".failed", zap.Error(err))
		attempts = append(attempts, err)
		if i+1 < len(chain) {
			plog.Info(kind+".fallback", zap.String("next", chain[i+1]))
		}
	}
	if len(attempts) == 1 {
		return zero, "", attempts[0]
	}
	log.Error(kind+".unavailable", zap.Int("attempts", len(attempts)))
	return zero, "", &domain.UnavailableError{Symbol: asset.Symbol, Type: asset.Type, Attempts: attempts}
}

// cachedFetch serves from c when fresh. Misses on the same key share one
// in-flight fetch, whose result is written back to c. The shared fetch is
// detached from the caller that started it; each caller stops waiting when
// its own ctx ends.
func cachedFetch[V any](ctx context.Context, s *MarketDataService, p MarketDataProvider, asset domain.Asset, kind string, c Cache[V], fetch fetchFunc[V], log *zap.Logger) (V, error) {
	var zero V
	key := CacheKey(strings.ToLower(p.Name()), kind, asset.Symbol)
	if v, ok := lookup(ctx, c, key, log); ok {
		return v, nil
	}

	ch := s.inflight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		if v, ok := lookup(fctx, c, key, log); ok {
			return v, nil
		}
		v, err := fetch(fctx, p, asset)
		if err != nil {
			return nil, err
		}
		if err := c.Set(fctx, key, v); err != nil {
			log.Warn("cache.set_failed", zap.String("key", key), zap.Error(err))
		}
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			log.Debug("fetch.coalesced", zap.String("key", key))
		}
		return res.Val.(V), nil
	}
}

func lookup[V any](ctx context.Context, c Cache[V], key string, log *zap.Logger) (V, bool) {
	v, ok, err := c.Get(ctx, key)
	if err != nil {
		log.Warn("cache.get_failed", zap.String("key", key), zap.Error(err))
		return v, false
	}
	if ok {
		log.Debug("cache.hit", zap.String("key", key))
	}
	return v, ok
}
