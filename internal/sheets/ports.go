package sheets

import (
	"context"

	"centrefunds/internal/core"
)

// Ports for outbound adapters.
type (
	// AllocationExporter publishes the allocations of a closed period as a report.
	AllocationExporter interface {
		Export(ctx context.Context, run core.AllocationRun, allocations []core.Allocation) error
	}
)
