package pg

import (
	"context"
	"errors"
	"fmt"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"

	"github.com/jackc/pgx/v5"
)

var _ application.SnapshotRepo = (*SnapshotRepo)(nil)

type SnapshotRepo struct{ db *DB }

func NewSnapshotRepo(db *DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

func (r *SnapshotRepo) GetLast(ctx context.Context, symbol string, assetType domain.AssetType) (domain.PriceSnapshot, error) {
	const q = `
        SELECT symbol, asset_type, price, source, updated_at
        FROM asset_snapshots WHERE symbol=$1 AND asset_type=$2`
	var out domain.PriceSnapshot
	var t string
	err := r.db.q(ctx).QueryRow(ctx, q, symbol, string(assetType)).
		Scan(&out.Symbol, &t, &out.Price, &out.Source, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PriceSnapshot{}, application.ErrNotFound
	}
	if err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("select snapshot: %w", err)
	}
	out.Type = domain.AssetType(t)
	return out, nil
}

func (r *SnapshotRepo) Upsert(ctx context.Context, s domain.PriceSnapshot) error {
	const up = `
        INSERT INTO asset_snapshots(symbol, asset_type, price, source, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (symbol, asset_type) DO UPDATE
          SET price=EXCLUDED.price, source=EXCLUDED.source, updated_at=EXCLUDED.updated_at
          WHERE asset_snapshots.updated_at <= EXCLUDED.updated_at`
	if _, err := r.db.q(ctx).Exec(ctx, up, s.Symbol, string(s.Type), s.Price, s.Source, s.UpdatedAt); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) AppendHistory(ctx context.Context, h domain.PriceHistory) error {
	const ins = `
        INSERT INTO asset_price_history(symbol, asset_type, price, quoted_at, source, update_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (symbol, asset_type, quoted_at, source) DO NOTHING`
	if _, err := r.db.q(ctx).Exec(ctx, ins, h.Symbol, string(h.Type), h.Price, h.QuotedAt, h.Source, h.UpdateID); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
