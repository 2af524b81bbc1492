package application

import (
	"context"
	"fmt"
	"time"

	"marketdata-service/internal/domain"

	"go.uber.org/zap"
)

// statusWriteTimeout bounds the terminal status write, which is detached from
// the job ctx.
const statusWriteTimeout = 5 * time.Second

// SnapshotService queues price refreshes, processes them and serves the
// persisted snapshots.
type SnapshotService struct {
	snapshots SnapshotRepo
	jobs      RefreshJobRepo
	resolver  PriceResolver
	idem      IdempotencyStore
	uow       UnitOfWork
	clock     Clock
	log       *zap.Logger
}

type Option func(*SnapshotService)

func WithClock(c Clock) Option { return func(s *SnapshotService) { s.clock = c } }
func WithUnitOfWork(u UnitOfWork) Option { return func(s *SnapshotService) { s.uow = u } }
func WithIdempotency(i IdempotencyStore) Option { return func(s *SnapshotService) { s.idem = i } }
func WithSnapshotLogger(l *zap.Logger) Option { return func(s *SnapshotService) { s.log = l } }

func NewSnapshotService(snapshots SnapshotRepo, jobs RefreshJobRepo, resolver PriceResolver, opts ...Option) *SnapshotService {
	s := &SnapshotService{
		snapshots: snapshots,
		jobs:      jobs,
		resolver:  resolver,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	if s.uow == nil {
		s.uow = NoopUoW{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *SnapshotService) RequestRefresh(ctx context.Context, asset domain.Asset, idem *string) (string, error) {
	if err := asset.Validate(); err != nil {
		return "", err
	}
	asset.Type, _ = domain.ParseAssetType(string(asset.Type))
	if idem != nil && *idem != "" {
		ok, err := s.idem.TryReserve(ctx, "refresh:"+*idem)
		if err != nil {
			return "", fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !ok {
			return "", ErrConflict
		}
	}
	return s.jobs.CreateQueued(ctx, asset, idem)
}

func (s *SnapshotService) GetRefresh(ctx context.Context, id string) (domain.RefreshJob, error) {
	return s.jobs.GetByID(ctx, id)
}

func (s *SnapshotService) GetLastSnapshot(ctx context.Context, symbol string, assetType domain.AssetType) (domain.PriceSnapshot, error) {
	return s.snapshots.GetLast(ctx, symbol, assetType)
}

// ProcessRefresh resolves the job's price and persists it. The job ends
// done or failed; the returned error is the resolution or storage failure.
func (s *SnapshotService) ProcessRefresh(ctx context.Context, job domain.RefreshJob) error {
	log := s.log.With(zap.String("id", job.ID), zap.String("symbol", job.Asset.Symbol))

	rp, err := s.resolver.ResolvePrice(ctx, job.Asset)
	if err != nil {
		s.fail(ctx, log, job.ID, err)
		return err
	}
	price, err := domain.ParsePrice(rp.Price)
	if err != nil {
		err = fmt.Errorf("parse price %q: %w", rp.Price, err)
		s.fail(ctx, log, job.ID, err)
		return err
	}

	now := s.clock.Now()
	id := job.ID
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.snapshots.AppendHistory(ctx, domain.PriceHistory{
			Symbol:   job.Asset.Symbol,
			Type:     job.Asset.Type,
			Price:    price,
			QuotedAt: now,
			Source:   rp.Provider,
			UpdateID: &id,
		}); err != nil {
			return err
		}
		return s.snapshots.Upsert(ctx, domain.PriceSnapshot{
			Symbol:    job.Asset.Symbol,
			Type:      job.Asset.Type,
			Price:     price,
			Source:    rp.Provider,
			UpdatedAt: now,
		})
	})
	if err != nil {
		s.fail(ctx, log, job.ID, err)
		return err
	}
	if err := s.finish(ctx, job.ID, domain.RefreshStatusDone, nil); err != nil {
		log.Warn("refresh.status_failed", zap.Error(err))
		return err
	}
	log.Info("refresh.done", zap.String("price", rp.Price), zap.String("source", rp.Provider))
	return nil
}

func (s *SnapshotService) fail(ctx context.Context, log *zap.Logger, id string, cause error) {
	msg := cause.Error()
	if err := s.finish(ctx, id, domain.RefreshStatusFailed, &msg); err != nil {
		log.Warn("refresh.status_failed", zap.Error(err))
	}
	log.Warn("refresh.failed", zap.Error(cause))
}

func (s *SnapshotService) finish(ctx context.Context, id string, st domain.RefreshStatus, errMsg *string) error {
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	return s.jobs.UpdateStatus(c, id, st, errMsg)
}
