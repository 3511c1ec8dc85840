package main

import (
	"context"
	"errors"
	"os"
	"time"

	"centrefunds/internal/cli"
	"centrefunds/internal/log"
	"centrefunds/internal/worker"
)

func main() {
	cfg, logger := cli.Setup(log.ComponentWorker)
	logger.Info("Starting allocation-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the allocation worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(context.Background(), logger, cfg)
	defer repo.Close()

	exporter := cli.InitExporter(context.Background(), logger, cfg)
	service := cli.NewAllocationService(cfg, repo, exporter, logger)

	amqpClient := cli.InitAMQP(logger, cfg)
	defer amqpClient.Close()

	allocationWorker := worker.NewAllocationWorker(service, amqpClient, logger)

	consumeCtx, stopConsuming := context.WithCancel(context.Background())
	_, shutdown, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		stopConsuming()
	})

	go func() {
		err := amqpClient.ConsumeRunRequests(consumeCtx, allocationWorker.HandleRunRequest)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
		shutdown()
	}()

	<-done
	logger.Info("Allocation worker stopped")
}
