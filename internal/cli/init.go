// Package cli provides common CLI initialization utilities shared by the
// binaries under cmd/.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"centrefunds/internal/allocation"
	"centrefunds/internal/amqp"
	"centrefunds/internal/backend"
	"centrefunds/internal/config"
	"centrefunds/internal/core"
	"centrefunds/internal/log"
	"centrefunds/internal/services"
	"centrefunds/internal/storage"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Setup loads .env, reads the configuration and installs the component's
// logger as default. It exits the process when validation fails.
func Setup(component string) (*config.Config, *log.Logger) {
	return SetupWithOutput(component, os.Stdout)
}

// SetupWithOutput is Setup with logs written to w.
func SetupWithOutput(component string, w io.Writer) (*config.Config, *log.Logger) {
	LoadEnvFile()

	cfg := config.Load()
	logger := log.FromSettingsTo(w, component, cfg.LogLevel, cfg.LogFormat)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitSQLite opens the repository and seeds the category catalog when
// enabled. It exits the process on failure.
func InitSQLite(ctx context.Context, logger *log.Logger, cfg *config.Config) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	if cfg.SeedCategories {
		n, err := repo.SeedCategories(ctx, core.DefaultCategories())
		if err != nil {
			logger.Error("Failed to seed revenue categories", "error", err)
			repo.Close()
			os.Exit(1)
		}
		if n > 0 {
			logger.Info("Seeded revenue categories", "count", n,
				log.FieldOperation, log.OpSeed)
		}
	}
	return repo
}

// InitExporter builds the report exporter selected by REPORT_BACKEND.
func InitExporter(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.ExporterResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid report backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateExporter(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize report exporter", "error", err, "backend", bcfg.Type.String())
		os.Exit(1)
	}
	return res
}

// InitAMQP connects to the broker, or returns nil when AMQP_URL is unset.
func InitAMQP(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

// NewAllocationService wires the engine with the configured split rules.
func NewAllocationService(cfg *config.Config, repo services.Repository, exp *backend.ExporterResult, logger *log.Logger) *services.AllocationService {
	engineCfg := allocation.DefaultConfig()
	engineCfg.SplitCategoryCode = cfg.SplitCategoryCode
	return services.NewAllocationService(repo, allocation.NewEngine(engineCfg), exp.Exporter, logger)
}

// GracefulShutdown runs cleanup on SIGINT/SIGTERM or when cancel is called.
// The returned context is cancelled once cleanup has run, and done is
// closed after that.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	trigger, stop := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-trigger.Done():
			logger.Info("Shutdown requested")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()
	}()

	return ctx, stop, done
}
