package backend

import (
	"context"
	"fmt"

	"centrefunds/internal/log"
	gsheet "centrefunds/internal/sheets/google"
	"centrefunds/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new exporter factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentSheets),
	}
}

// CreateExporter implements Factory.CreateExporter
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (*ExporterResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsBackend:
		return f.createSheetsExporter(ctx, config)
	case MemoryBackend:
		store := memory.New(config.GoogleSheetName)
		f.logger.Info("Reports kept in memory", "sheet_base", config.GoogleSheetName)
		return &ExporterResult{Type: MemoryBackend, Exporter: store, Memory: store}, nil
	case NoneBackend:
		f.logger.Info("Report export disabled")
		return &ExporterResult{Type: NoneBackend}, nil
	default:
		return nil, fmt.Errorf("unsupported report backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsExporter(ctx context.Context, config Config) (*ExporterResult, error) {
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets exporter",
		log.FieldSpreadsheetID, config.GoogleSpreadsheetID,
		"sheet_base", config.GoogleSheetName)

	return &ExporterResult{Type: SheetsBackend, Exporter: cli}, nil
}
