//go:build wireinject

package bootstrap

import (
	"context"

	"marketdata-service/internal/application"
	httpserver "marketdata-service/internal/infrastructure/http"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideConfig,
	ProvideHTTPClient,
	ProvideProviders,
	ProvideChains,
	ProvideRedisClient,
	ProvidePriceCache,
	ProvideHistoryCache,
	ProvideMarketDataService,
	ProvideStore,
	ProvideIdempotency,
	ProvideSnapshotService,
)

// InitAPI builds the HTTP server and its cleanup.
func InitAPI(ctx context.Context) (*httpserver.Server, func(), error) {
	wire.Build(
		infraSet,
		ProvideServer,
	)
	return nil, nil, nil
}

// InitWorker builds the refresh worker and its cleanup.
func InitWorker(ctx context.Context) (application.Worker, func(), error) {
	wire.Build(
		infraSet,
		ProvideWorker,
	)
	return nil, nil, nil
}
