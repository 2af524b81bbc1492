package worker

import (
	"context"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"

	"go.uber.org/zap"
)

var _ application.Worker = (*DbWorker)(nil)

// Processor resolves and persists one claimed refresh job.
type Processor interface {
	ProcessRefresh(ctx context.Context, job domain.RefreshJob) error
}

var _ Processor = (*application.SnapshotService)(nil)

// DbWorker polls the job table, claims queued refreshes in batches and hands
// them to a fixed pool of goroutines.
type DbWorker struct {
	Jobs      application.RefreshJobRepo
	Processor Processor

	PollEvery   time.Duration
	BatchLimit  int
	Concurrency int
	JobTimeout  time.Duration
	Log         *zap.Logger
}

func (w *DbWorker) defaults() {
	if w.Log == nil {
		w.Log = zap.NewNop()
	}
	if w.PollEvery <= 0 {
		w.PollEvery = 250 * time.Millisecond
	}
	if w.BatchLimit <= 0 {
		w.BatchLimit = 10
	}
	if w.Concurrency <= 0 {
		w.Concurrency = 4
	}
	if w.JobTimeout <= 0 {
		w.JobTimeout = 30 * time.Second
	}
}

func (w *DbWorker) Start(ctx context.Context) {
	w.defaults()
	log := w.Log

	queue := make(chan domain.RefreshJob, w.BatchLimit)
	pl := &pool{jobs: w.Jobs, proc: w.Processor, timeout: w.JobTimeout, log: log}
	done := pl.start(ctx, queue, w.Concurrency)

	t := time.NewTicker(w.PollEvery)
	defer t.Stop()

	log.Info("db_worker_started",
		zap.Duration("poll_every", w.PollEvery),
		zap.Int("batch_limit", w.BatchLimit),
		zap.Int("concurrency", w.Concurrency),
	)
	for {
		select {
		case <-ctx.Done():
			close(queue)
			<-done
			log.Info("db_worker_stopped")
			return
		case <-t.C:
			w.tick(ctx, queue, log)
		}
	}
}

func (w *DbWorker) tick(ctx context.Context, queue chan<- domain.RefreshJob, log *zap.Logger) {
	jobs, err := w.Jobs.ClaimQueued(ctx, w.BatchLimit)
	if err != nil {
		log.Warn("claim_failed", zap.Error(err))
		return
	}
	if len(jobs) > 0 {
		log.Debug("claimed", zap.Int("count", len(jobs)))
	}
	for _, j := range jobs {
		select {
		case queue <- j:
		case <-ctx.Done():
			return
		}
	}
}
