package main

import (
	"context"
	"os"
	"time"

	"centrefunds/internal/cli"
	"centrefunds/internal/log"
	"centrefunds/internal/services"
)

func main() {
	cfg, logger := cli.Setup(log.ComponentScheduler)

	strategy, err := services.GetPeriodStrategy(cfg.CloseSchedule)
	if err != nil {
		logger.Error("Unknown close schedule", "error", err, "schedule", cfg.CloseSchedule)
		os.Exit(1)
	}

	repo := cli.InitSQLite(context.Background(), logger, cfg)
	defer repo.Close()

	// With a broker the worker does the closing; otherwise close in-process.
	var runner services.PeriodRunner
	if amqpClient := cli.InitAMQP(logger, cfg); amqpClient != nil {
		defer amqpClient.Close()
		runner = services.NewQueuedRunner(amqpClient)
	} else {
		exporter := cli.InitExporter(context.Background(), logger, cfg)
		runner = cli.NewAllocationService(cfg, repo, exporter, logger)
	}

	closer := services.NewPeriodCloser(runner, repo, strategy,
		services.PeriodCloserConfig{Interval: cfg.CloseInterval}, logger)

	_, _, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := closer.Stop(ctx); err != nil {
			logger.Error("Period closer shutdown error", "error", err)
		}
	})

	if err := closer.Start(context.Background()); err != nil {
		logger.Error("Failed to start period closer", "error", err)
		os.Exit(1)
	}

	logger.Info("Period closer running",
		"schedule", cfg.CloseSchedule,
		"interval", cfg.CloseInterval.String(),
		"queued", cfg.AMQPURL != "")

	<-done
	logger.Info("Period closer stopped")
}
