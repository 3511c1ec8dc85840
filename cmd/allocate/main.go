package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"centrefunds/internal/backend"
	"centrefunds/internal/cli"
	"centrefunds/internal/core"
	"centrefunds/internal/log"
	"centrefunds/internal/services"
	"centrefunds/internal/sheets/memory"
)

func main() {
	flags, err := cli.ParseAllocateFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "allocate:", err)
		os.Exit(2)
	}

	cfg, logger := cli.SetupWithOutput(log.ComponentApp, os.Stderr)
	if flags.DBPath != "" {
		cfg.SQLiteDBPath = flags.DBPath
	}

	r, err := core.ParseDayRange(flags.Start, flags.End)
	if err != nil {
		fmt.Fprintln(os.Stderr, "allocate:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := cli.InitSQLite(ctx, logger, cfg)
	defer repo.Close()

	// Without a configured backend, reports are kept in memory and printed.
	exporter := cli.InitExporter(ctx, logger, cfg)
	if exporter.Type == backend.NoneBackend {
		store := memory.New(cfg.GoogleSheetName)
		exporter = &backend.ExporterResult{Type: backend.MemoryBackend, Exporter: store, Memory: store}
	}
	service := cli.NewAllocationService(cfg, repo, exporter, logger)

	rep, err := run(ctx, service, flags.Mode, r)
	if err != nil {
		logger.Error("Allocation command failed",
			log.NewFields().WithRange(r).WithOperation(flags.Mode).WithError(err).ToSlice()...)
		os.Exit(1)
	}

	if err := cli.WriteReport(os.Stdout, flags.Format, rep); err != nil {
		logger.Error("Failed to write report", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, service *services.AllocationService, mode string, r core.DateRange) (cli.Report, error) {
	rep := cli.Report{Range: r.Key()}

	switch mode {
	case cli.ModePreview:
		res, err := service.Preview(ctx, r)
		if err != nil {
			return rep, err
		}
		rep.Allocations, rep.Stats = res.Allocations, &res.Stats
	case cli.ModeTotals:
		total, err := service.Totals(ctx, r)
		if err != nil {
			return rep, err
		}
		rep.Allocations = []core.Allocation{total}
	case cli.ModeStored:
		allocs, err := service.Stored(ctx, r)
		if err != nil {
			return rep, err
		}
		rep.Allocations = allocs
	case cli.ModeClose:
		res, err := service.Close(ctx, r, services.TriggerCLI)
		if err != nil {
			return rep, err
		}
		if res.ExportErr != nil {
			return rep, fmt.Errorf("run %s stored, export failed: %w", res.Run.ID, res.ExportErr)
		}
		rep.RunID, rep.Allocations, rep.Stats = res.Run.ID, res.Allocations, &res.Stats
	case cli.ModeReexport:
		if err := service.Reexport(ctx, r); err != nil {
			return rep, err
		}
		allocs, err := service.Stored(ctx, r)
		if err != nil {
			return rep, err
		}
		rep.Allocations = allocs
	default:
		return rep, fmt.Errorf("unknown mode %q", mode)
	}
	return rep, nil
}
