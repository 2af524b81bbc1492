package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"

	"go.uber.org/zap"
)

const statusWriteTimeout = 5 * time.Second

type pool struct {
	jobs    application.RefreshJobRepo
	proc    Processor
	timeout time.Duration
	log     *zap.Logger
}

// start runs n consumers of queue until it is closed. The returned channel
// is closed once every consumer has exited.
func (p *pool) start(ctx context.Context, queue <-chan domain.RefreshJob, n int) <-chan struct{} {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			log := p.log.With(zap.Int("slot", slot))
			for j := range queue {
				p.processOne(ctx, log, j)
			}
		}(i)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

func (p *pool) processOne(ctx context.Context, log *zap.Logger, j domain.RefreshJob) {
	log = log.With(zap.String("id", j.ID), zap.String("symbol", j.Asset.Symbol))
	defer func() {
		if r := recover(); r != nil {
			log.Error("refresh_panic", zap.Any("r", r))
			msg := fmt.Sprintf("panic: %v", r)
			c, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
			defer cancel()
			if err := p.jobs.UpdateStatus(c, j.ID, domain.RefreshStatusFailed, &msg); err != nil {
				log.Warn("status_update_failed", zap.Error(err))
			}
		}
	}()
	c, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.proc.ProcessRefresh(c, j); err != nil {
		log.Warn("refresh_failed", zap.Error(err))
		return
	}
	log.Debug("refresh_done")
}
