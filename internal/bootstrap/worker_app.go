package bootstrap

import (
	"context"
	"fmt"
)

type WorkerApp func(ctx context.Context) error

// InitWorkerApp wraps the configured worker in a runner that blocks until ctx is done.
func InitWorkerApp(ctx context.Context) (WorkerApp, func(), error) {
	w, cleanup, err := InitWorker(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("init worker: %w", err)
	}
	runner := func(ctx context.Context) error {
		w.Start(ctx)
		return nil
	}
	return runner, cleanup, nil
}
