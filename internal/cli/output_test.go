package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"centrefunds/internal/allocation"
	"centrefunds/internal/core"

	"github.com/shopspring/decimal"
)

func sampleReport() Report {
	return Report{
		Range: "2024-03-01..2024-03-31",
		RunID: "run-1",
		Allocations: []core.Allocation{
			{
				CentreID:                 1,
				CentreName:               "Dodoma",
				RevenueCode:              "142202540078",
				OriginalAmount:           decimal.RequireFromString("1000.00"),
				ContributionToCentreFund: decimal.RequireFromString("242.4"),
				RemittedToCentre:         decimal.RequireFromString("250.50"),
			},
			allocation.Empty(core.Centre{ID: 2, Name: "Tanga"}),
		},
		Stats: &allocation.Stats{Considered: 3, Retained: 2, OutOfRange: 1},
	}
}

func TestWriteReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, FormatJSON, sampleReport()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	var decoded struct {
		Range       string            `json:"range"`
		RunID       string            `json:"runId"`
		Allocations []json.RawMessage `json:"allocations"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Range != "2024-03-01..2024-03-31" || decoded.RunID != "run-1" {
		t.Errorf("unexpected header fields: %+v", decoded)
	}
	if len(decoded.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(decoded.Allocations))
	}
	if !strings.Contains(string(decoded.Allocations[0]), `"250.5"`) {
		t.Errorf("amount should be a decimal string: %s", decoded.Allocations[0])
	}
}

func TestWriteReport_JSONEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, FormatJSON, Report{Range: "r"}); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !strings.Contains(buf.String(), `"allocations": []`) {
		t.Errorf("empty allocations should encode as []: %s", buf.String())
	}
	if strings.Contains(buf.String(), "runId") || strings.Contains(buf.String(), "stats") {
		t.Errorf("optional fields should be omitted: %s", buf.String())
	}
}

func TestWriteReport_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, FormatTable, sampleReport()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Run run-1",
		"Period 2024-03-01..2024-03-31",
		"Centre ID",
		"Remitted To Centre",
		"Dodoma",
		"250.5",
		"Remitted to centres 250.50, centre fund 242.40, 1 centres without payments",
		"3 payments considered, 2 retained, 1 out of range",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReport_UnknownFormat(t *testing.T) {
	if err := WriteReport(&bytes.Buffer{}, "xml", Report{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
