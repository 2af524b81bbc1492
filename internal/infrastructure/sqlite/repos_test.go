package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/sqlite"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRefreshJobRepo_Lifecycle(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	repo := sqlite.NewRefreshJobRepo(db)

	asset := domain.Asset{Symbol: "BTC", Type: domain.AssetTypeCrypto, ID: "bitcoin"}
	key := "idem-1"
	id, err := repo.CreateQueued(ctx, asset, &key)
	require.NoError(t, err)

	_, err = repo.CreateQueued(ctx, asset, &key)
	require.ErrorIs(t, err, application.ErrConflict)

	// Jobs without a key never collide.
	other, err := repo.CreateQueued(ctx, asset, nil)
	require.NoError(t, err)
	_, err = repo.CreateQueued(ctx, asset, nil)
	require.NoError(t, err)

	claimed, err := repo.ClaimQueued(ctx, 2)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, j := range claimed {
		require.Equal(t, domain.RefreshStatusProcessing, j.Status)
		require.Equal(t, asset, j.Asset)
	}

	rest, err := repo.ClaimQueued(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	require.NoError(t, repo.UpdateStatus(ctx, id, domain.RefreshStatusDone, nil))
	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.RefreshStatusDone, got.Status)
	require.Nil(t, got.Error)

	msg := "coinmarketcap: BTC: missing credentials"
	require.NoError(t, repo.UpdateStatus(ctx, other, domain.RefreshStatusFailed, &msg))
	got, err = repo.GetByID(ctx, other)
	require.NoError(t, err)
	require.Equal(t, msg, *got.Error)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, application.ErrNotFound)
	require.ErrorIs(t, repo.UpdateStatus(ctx, "missing", domain.RefreshStatusDone, nil), application.ErrNotFound)
}

func TestSnapshotRepo_Upsert(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	snaps := sqlite.NewSnapshotRepo(db)
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, snaps.Upsert(ctx, domain.PriceSnapshot{
		Symbol: "AAPL", Type: domain.AssetTypeStock,
		Price: decimal.RequireFromString("189.5"), Source: "fmp", UpdatedAt: at,
	}))
	require.NoError(t, snaps.Upsert(ctx, domain.PriceSnapshot{
		Symbol: "AAPL", Type: domain.AssetTypeStock,
		Price: decimal.RequireFromString("190.1"), Source: "fmp", UpdatedAt: at.Add(time.Minute),
	}))
	require.NoError(t, snaps.Upsert(ctx, domain.PriceSnapshot{
		Symbol: "AAPL", Type: domain.AssetTypeStock,
		Price: decimal.RequireFromString("1"), Source: "stale", UpdatedAt: at.Add(-time.Hour),
	}))

	got, err := snaps.GetLast(ctx, "AAPL", domain.AssetTypeStock)
	require.NoError(t, err)
	require.Equal(t, "190.1", got.Price.String())
	require.Equal(t, at.Add(time.Minute), got.UpdatedAt)

	_, err = snaps.GetLast(ctx, "AAPL", domain.AssetTypeIndex)
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestUnitOfWork_RollsBack(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	snaps := sqlite.NewSnapshotRepo(db)

	err := sqlite.NewUnitOfWork(db).Do(ctx, func(ctx context.Context) error {
		require.NoError(t, snaps.AppendHistory(ctx, domain.PriceHistory{
			Symbol: "ETH", Type: domain.AssetTypeCrypto,
			Price: decimal.RequireFromString("3120"), QuotedAt: time.Now(), Source: "coingecko",
		}))
		if err := snaps.Upsert(ctx, domain.PriceSnapshot{
			Symbol: "ETH", Type: domain.AssetTypeCrypto,
			Price: decimal.RequireFromString("3120"), Source: "coingecko", UpdatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return application.ErrConflict
	})
	require.ErrorIs(t, err, application.ErrConflict)

	_, err = snaps.GetLast(ctx, "ETH", domain.AssetTypeCrypto)
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "md.db")
	db, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())

	// Reopening applies the schema idempotently.
	db, err = sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
