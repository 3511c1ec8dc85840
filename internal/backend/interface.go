package backend

import (
	"context"

	"centrefunds/internal/sheets"
	"centrefunds/internal/sheets/memory"
)

// ExporterResult contains the exporter and, for the memory backend, the store
// holding what was exported.
type ExporterResult struct {
	Type     BackendType
	Exporter sheets.AllocationExporter // nil for NoneBackend
	Memory   *memory.Store
}

// Factory creates report exporters based on configuration
type Factory interface {
	CreateExporter(ctx context.Context, config Config) (*ExporterResult, error)
}

// Config holds configuration for exporter creation
type Config struct {
	Type BackendType

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType represents the type of report backend
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
	NoneBackend   BackendType = "none"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend, NoneBackend:
		return true
	default:
		return false
	}
}
