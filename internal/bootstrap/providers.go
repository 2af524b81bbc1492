package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"marketdata-service/internal/application"
	"marketdata-service/internal/config"
	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/cache"
	httpserver "marketdata-service/internal/infrastructure/http"
	"marketdata-service/internal/infrastructure/httpx"
	"marketdata-service/internal/infrastructure/logx"
	"marketdata-service/internal/infrastructure/pg"
	"marketdata-service/internal/infrastructure/provider"
	redisstore "marketdata-service/internal/infrastructure/redis"
	"marketdata-service/internal/infrastructure/sqlite"
	"marketdata-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// Store is the persistence selected by STORAGE.
type Store struct {
	Snapshots application.SnapshotRepo
	Jobs      application.RefreshJobRepo
	UoW       application.UnitOfWork
	Ping      func(ctx context.Context) error
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

func ProvideHTTPClient(cfg config.Config) *httpx.Client {
	return httpx.New(cfg.UpstreamTimeout, cfg.UpstreamRetries)
}

func ProvideProviders(cfg config.Config, client *httpx.Client, log *zap.Logger) []application.MarketDataProvider {
	if cfg.ProviderMode == "fake" {
		log.Warn("provider_mode_fake")
		return []application.MarketDataProvider{
			provider.NewFake(provider.NameCoinGecko, 65000),
			provider.NewFake(provider.NameCoinMarketCap, 65000),
			provider.NewFake(provider.NameFMP, 100),
		}
	}
	return []application.MarketDataProvider{
		&provider.CoinGecko{
			BaseURL:    cfg.CoinGeckoBaseURL,
			ProBaseURL: cfg.CoinGeckoProBaseURL,
			APIKey:     cfg.CoinGeckoAPIKey,
			Client:     client,
		},
		&provider.CoinMarketCap{
			BaseURL: cfg.CoinMarketCapBaseURL,
			APIKey:  cfg.CoinMarketCapAPIKey,
			Client:  client,
		},
		&provider.FMP{
			BaseURL: cfg.FMPBaseURL,
			APIKey:  cfg.FMPAPIKey,
			Client:  client,
		},
	}
}

// ProvideChains converts the configured chains to asset types, rejecting
// unknown type names.
func ProvideChains(cfg config.Config) (map[domain.AssetType][]string, error) {
	out := make(map[domain.AssetType][]string, len(cfg.ProviderChains))
	for name, chain := range cfg.ProviderChains {
		t, ok := domain.ParseAssetType(name)
		if !ok {
			return nil, fmt.Errorf("provider chain for unknown asset type %q", name)
		}
		if len(chain) > 0 {
			out[t] = chain
		}
	}
	return out, nil
}

func ProvideRedisClient(cfg config.Config) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return client, func() { _ = client.Close() }, nil
}

func ProvidePriceCache(cfg config.Config, rdb *redis.Client) application.Cache[string] {
	if cfg.CacheBackend == "redis" {
		return cache.NewRedis[string](rdb, "marketdata:cache", cfg.CacheTTL)
	}
	return cache.NewMemory[string](cfg.CacheTTL)
}

func ProvideHistoryCache(cfg config.Config, rdb *redis.Client) application.Cache[[]domain.MonthlyPoint] {
	if cfg.CacheBackend == "redis" {
		return cache.NewRedis[[]domain.MonthlyPoint](rdb, "marketdata:cache", cfg.CacheTTL)
	}
	return cache.NewMemory[[]domain.MonthlyPoint](cfg.CacheTTL)
}

func ProvideMarketDataService(
	providers []application.MarketDataProvider,
	chains map[domain.AssetType][]string,
	prices application.Cache[string],
	history application.Cache[[]domain.MonthlyPoint],
	log *zap.Logger,
) (*application.MarketDataService, error) {
	return application.NewMarketDataService(providers, chains, prices, history,
		application.WithLogger(log.With(zap.String("component", "marketdata"))))
}

func ProvideStore(ctx context.Context, log *zap.Logger, cfg config.Config) (Store, func(), error) {
	switch cfg.Storage {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return Store{}, func() {}, fmt.Errorf("open sqlite: %w", err)
		}
		cleanup := func() {
			log.Info("closing sqlite")
			_ = db.Close()
		}
		return Store{
			Snapshots: sqlite.NewSnapshotRepo(db),
			Jobs:      sqlite.NewRefreshJobRepo(db),
			UoW:       sqlite.NewUnitOfWork(db),
			Ping:      db.Ping,
		}, cleanup, nil
	case "", "pg":
		if cfg.DatabaseURL == "" {
			return Store{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Store{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return Store{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing pg")
			db.Close()
		}
		return Store{
			Snapshots: pg.NewSnapshotRepo(db),
			Jobs:      pg.NewRefreshJobRepo(db),
			UoW:       pg.NewUnitOfWork(db),
			Ping:      db.Ping,
		}, cleanup, nil
	default:
		return Store{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

func ProvideIdempotency(cfg config.Config, rdb *redis.Client) application.IdempotencyStore {
	if cfg.IdempotencyBackend != "redis" {
		return application.NoopIdempotency{}
	}
	return redisstore.New(rdb, cfg.IdempotencyTTL)
}

func ProvideSnapshotService(st Store, md *application.MarketDataService, idem application.IdempotencyStore, log *zap.Logger) *application.SnapshotService {
	return application.NewSnapshotService(st.Snapshots, st.Jobs, md,
		application.WithUnitOfWork(st.UoW),
		application.WithIdempotency(idem),
		application.WithSnapshotLogger(log.With(zap.String("component", "snapshots"))),
	)
}

func ProvideServer(md *application.MarketDataService, snaps *application.SnapshotService, st Store) *httpserver.Server {
	srv := httpserver.NewServer(md, snaps)
	srv.SetReadyCheck(st.Ping)
	return srv
}

func ProvideWorker(cfg config.Config, st Store, snaps *application.SnapshotService, log *zap.Logger) (application.Worker, error) {
	switch cfg.WorkerType {
	case "", "db":
		return &worker.DbWorker{
			Jobs:        st.Jobs,
			Processor:   snaps,
			PollEvery:   cfg.WorkerPoll,
			BatchLimit:  cfg.WorkerBatchSize,
			Concurrency: cfg.WorkerConcurrency,
			JobTimeout:  cfg.WorkerJobTimeout,
			Log:         log.With(zap.String("component", "worker")),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported WORKER_TYPE=%q", cfg.WorkerType)
	}
}
