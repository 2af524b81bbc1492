package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/logx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var _ application.RefreshJobRepo = (*RefreshJobRepo)(nil)

type RefreshJobRepo struct{ db *DB }

func NewRefreshJobRepo(db *DB) *RefreshJobRepo { return &RefreshJobRepo{db: db} }

func (r *RefreshJobRepo) log(op string) *zap.Logger {
	return logx.L().With(zap.String("repo", "refresh_job"), zap.String("operation", op))
}

func (r *RefreshJobRepo) CreateQueued(ctx context.Context, asset domain.Asset, idem *string) (string, error) {
	id := uuid.NewString()
	payload, err := json.Marshal(asset)
	if err != nil {
		return "", fmt.Errorf("encode asset: %w", err)
	}
	const ins = `
        INSERT INTO refresh_jobs(id, symbol, asset_type, asset, idempotency_key, status)
        VALUES ($1, $2, $3, $4, $5, 'queued')`
	log := r.log("CreateQueued").With(zap.String("id", id), zap.String("symbol", asset.Symbol))
	log.Debug("sql.exec_start")
	if _, err := r.db.q(ctx).Exec(ctx, ins, id, asset.Symbol, string(asset.Type), payload, idem); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			log.Info("sql.exec_duplicate")
			return "", application.ErrConflict
		}
		log.Error("sql.exec_failed", zap.Error(err))
		return "", err
	}
	log.Info("sql.exec_success")
	return id, nil
}

func (r *RefreshJobRepo) GetByID(ctx context.Context, id string) (domain.RefreshJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.RefreshJob{}, application.ErrNotFound
	}
	const q = `
        SELECT id::text, asset, status, error, COALESCE(completed_at, requested_at)
        FROM refresh_jobs WHERE id=$1`
	out, err := scanJob(r.db.q(ctx).QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RefreshJob{}, application.ErrNotFound
	}
	if err != nil {
		r.log("GetByID").Error("sql.query_failed", zap.String("id", id), zap.Error(err))
		return domain.RefreshJob{}, err
	}
	return out, nil
}

func (r *RefreshJobRepo) UpdateStatus(ctx context.Context, id string, st domain.RefreshStatus, errMsg *string) error {
	const up = `
        UPDATE refresh_jobs
        SET status=$2,
            error=$3,
            completed_at = CASE WHEN $2 IN ('done','failed') THEN NOW() ELSE completed_at END
        WHERE id=$1`
	log := r.log("UpdateStatus").With(zap.String("id", id), zap.String("status", string(st)))
	tag, err := r.db.q(ctx).Exec(ctx, up, id, string(st), errMsg)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Warn("sql.exec_no_rows")
		return application.ErrNotFound
	}
	log.Debug("sql.exec_success")
	return nil
}

// ClaimQueued moves up to limit queued jobs to processing. Concurrent
// workers skip each other's rows.
func (r *RefreshJobRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.RefreshJob, error) {
	const q = `
      WITH cte AS (
        SELECT id
        FROM refresh_jobs
        WHERE status = 'queued'
        ORDER BY requested_at
        LIMIT $1
        FOR UPDATE SKIP LOCKED
      )
      UPDATE refresh_jobs j
      SET status = 'processing'
      FROM cte
      WHERE j.id = cte.id
      RETURNING j.id::text, j.asset, j.status, j.error, j.requested_at`
	rows, err := r.db.q(ctx).Query(ctx, q, limit)
	if err != nil {
		return nil, err
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

func scanJob(row pgx.Row) (domain.RefreshJob, error) {
	var out domain.RefreshJob
	var payload []byte
	var status string
	if err := row.Scan(&out.ID, &payload, &status, &out.Error, &out.UpdatedAt); err != nil {
		return domain.RefreshJob{}, err
	}
	if err := json.Unmarshal(payload, &out.Asset); err != nil {
		return domain.RefreshJob{}, fmt.Errorf("decode asset: %w", err)
	}
	out.Status = domain.ParseRefreshStatus(status)
	return out, nil
}
