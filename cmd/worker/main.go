package main

import (
	"context"
	"os/signal"
	"syscall"

	"marketdata-service/internal/bootstrap"
	"marketdata-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, cleanup, err := bootstrap.InitWorkerApp(ctx)
	if err != nil {
		log.Fatal("init worker", zap.Error(err))
	}
	defer cleanup()

	log.Info("worker started")
	if err := run(ctx); err != nil {
		log.Error("worker exited", zap.Error(err))
	}
	log.Info("worker stopped")
}
