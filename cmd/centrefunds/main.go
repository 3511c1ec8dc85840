package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"centrefunds/internal/allocation"
	"centrefunds/internal/cache"
	"centrefunds/internal/cli"
	apphttp "centrefunds/internal/http"
	"centrefunds/internal/log"
	"centrefunds/internal/services"
)

func main() {
	cfg, logger := cli.Setup(log.ComponentApp)

	repo := cli.InitSQLite(context.Background(), logger, cfg)
	defer repo.Close()

	exporter := cli.InitExporter(context.Background(), logger, cfg)
	service := cli.NewAllocationService(cfg, repo, exporter, logger)

	var queue services.PeriodRunner
	if amqpClient := cli.InitAMQP(logger, cfg); amqpClient != nil {
		defer amqpClient.Close()
		queue = services.NewQueuedRunner(amqpClient)
	} else {
		logger.Info("AMQP disabled - period closes run in the request")
	}

	previews := cache.NewLRUCache[allocation.Result](cfg.PreviewCacheSize, cfg.PreviewCacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache))
	cacheManager.Register(previews)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:     ":" + cfg.Port,
		Service:  service,
		Queue:    queue,
		Runs:     repo,
		Ready:    repo,
		Previews: previews,
		Logger:   logger,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, _, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	cacheManager.StartCleanup(ctx, time.Minute)
	defer cacheManager.Stop()

	logger.Info("Starting centrefunds server",
		"port", cfg.Port,
		"db", cfg.SQLiteDBPath,
		"report_backend", exporter.Type.String(),
		"queued_closes", queue != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
