package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	_ application.SnapshotRepo   = (*SnapshotRepo)(nil)
	_ application.RefreshJobRepo = (*RefreshJobRepo)(nil)
	_ application.UnitOfWork     = (*UnitOfWork)(nil)
)

func toUnix(t time.Time) int64 { return t.UTC().UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

type SnapshotRepo struct{ db *DB }

func NewSnapshotRepo(db *DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

func (r *SnapshotRepo) GetLast(ctx context.Context, symbol string, assetType domain.AssetType) (domain.PriceSnapshot, error) {
	var out domain.PriceSnapshot
	var t, price string
	var at int64
	err := r.db.q(ctx).QueryRowContext(ctx,
		`SELECT symbol, asset_type, price, source, updated_at FROM asset_snapshots WHERE symbol=? AND asset_type=?`,
		symbol, string(assetType)).Scan(&out.Symbol, &t, &price, &out.Source, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PriceSnapshot{}, application.ErrNotFound
	}
	if err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("select snapshot: %w", err)
	}
	if out.Price, err = decimal.NewFromString(price); err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("decode price %q: %w", price, err)
	}
	out.Type = domain.AssetType(t)
	out.UpdatedAt = fromUnix(at)
	return out, nil
}

func (r *SnapshotRepo) Upsert(ctx context.Context, s domain.PriceSnapshot) error {
	_, err := r.db.q(ctx).ExecContext(ctx, `
		INSERT INTO asset_snapshots(symbol, asset_type, price, source, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (symbol, asset_type) DO UPDATE
		  SET price=excluded.price, source=excluded.source, updated_at=excluded.updated_at
		  WHERE asset_snapshots.updated_at <= excluded.updated_at`,
		s.Symbol, string(s.Type), s.Price.String(), s.Source, toUnix(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) AppendHistory(ctx context.Context, h domain.PriceHistory) error {
	_, err := r.db.q(ctx).ExecContext(ctx, `
		INSERT INTO asset_price_history(symbol, asset_type, price, quoted_at, source, update_id, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, asset_type, quoted_at, source) DO NOTHING`,
		h.Symbol, string(h.Type), h.Price.String(), toUnix(h.QuotedAt), h.Source, h.UpdateID, toUnix(time.Now()))
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

type RefreshJobRepo struct {
	db  *DB
	now func() time.Time
}

func NewRefreshJobRepo(db *DB) *RefreshJobRepo {
	return &RefreshJobRepo{db: db, now: time.Now}
}

func (r *RefreshJobRepo) CreateQueued(ctx context.Context, asset domain.Asset, idem *string) (string, error) {
	id := uuid.NewString()
	payload, err := json.Marshal(asset)
	if err != nil {
		return "", fmt.Errorf("encode asset: %w", err)
	}
	_, err = r.db.q(ctx).ExecContext(ctx, `
		INSERT INTO refresh_jobs(id, symbol, asset_type, asset, idempotency_key, status, requested_at)
		VALUES (?, ?, ?, ?, ?, 'queued', ?)`,
		id, asset.Symbol, string(asset.Type), string(payload), idem, toUnix(r.now()))
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return "", application.ErrConflict
		}
		return "", fmt.Errorf("insert refresh job: %w", err)
	}
	return id, nil
}

func (r *RefreshJobRepo) GetByID(ctx context.Context, id string) (domain.RefreshJob, error) {
	row := r.db.q(ctx).QueryRowContext(ctx, `
		SELECT id, asset, status, error, COALESCE(completed_at, requested_at)
		FROM refresh_jobs WHERE id=?`, id)
	out, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RefreshJob{}, application.ErrNotFound
	}
	return out, err
}

func (r *RefreshJobRepo) UpdateStatus(ctx context.Context, id string, st domain.RefreshStatus, errMsg *string) error {
	var completed *int64
	if st == domain.RefreshStatusDone || st == domain.RefreshStatusFailed {
		n := toUnix(r.now())
		completed = &n
	}
	res, err := r.db.q(ctx).ExecContext(ctx, `
		UPDATE refresh_jobs SET status=?, error=?, completed_at=COALESCE(?, completed_at) WHERE id=?`,
		string(st), errMsg, completed, id)
	if err != nil {
		return fmt.Errorf("update refresh job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return application.ErrNotFound
	}
	return nil
}

// ClaimQueued moves up to limit queued jobs to processing, oldest first.
func (r *RefreshJobRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.RefreshJob, error) {
	rows, err := r.db.q(ctx).QueryContext(ctx, `
		UPDATE refresh_jobs SET status='processing'
		WHERE id IN (
			SELECT id FROM refresh_jobs WHERE status='queued' ORDER BY requested_at LIMIT ?
		)
		RETURNING id, asset, status, error, requested_at`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim refresh jobs: %w", err)
	}
	defer rows.Close()
	var out []domain.RefreshJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (domain.RefreshJob, error) {
	var out domain.RefreshJob
	var payload, status string
	var errMsg sql.NullString
	var at int64
	if err := s.Scan(&out.ID, &payload, &status, &errMsg, &at); err != nil {
		return domain.RefreshJob{}, err
	}
	if err := json.Unmarshal([]byte(payload), &out.Asset); err != nil {
		return domain.RefreshJob{}, fmt.Errorf("decode asset: %w", err)
	}
	if errMsg.Valid {
		out.Error = &errMsg.String
	}
	out.Status = domain.ParseRefreshStatus(status)
	out.UpdatedAt = fromUnix(at)
	return out, nil
}
