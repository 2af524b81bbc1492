package application

import (
	"context"

	"marketdata-service/internal/domain"
)

// MarketDataProvider is one external market-data source.
//
//go:generate mockgen -package=mocks -destination=mocks/mock_provider.go -source=ports.go MarketDataProvider
type MarketDataProvider interface {
	Name() string
	FetchPrice(ctx context.Context, asset domain.Asset) (string, error)
	FetchHistorical(ctx context.Context, asset domain.Asset) ([]domain.MonthlyPoint, error)
}

// Cache is a TTL-checked key/value store consulted before any outbound call.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, v V) error
}

type SnapshotRepo interface {
	GetLast(ctx context.Context, symbol string, assetType domain.AssetType) (domain.PriceSnapshot, error)
	Upsert(ctx context.Context, s domain.PriceSnapshot) error
	AppendHistory(ctx context.Context, h domain.PriceHistory) error
}

type RefreshJobRepo interface {
	CreateQueued(ctx context.Context, asset domain.Asset, idem *string) (string, error)
	GetByID(ctx context.Context, id string) (domain.RefreshJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.RefreshStatus, errMsg *string) error
	ClaimQueued(ctx context.Context, limit int) ([]domain.RefreshJob, error)
}

// PriceResolver resolves a price and reports which provider served it.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, asset domain.Asset) (ResolvedPrice, error)
}
