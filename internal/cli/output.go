package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"centrefunds/internal/allocation"
	"centrefunds/internal/core"
	"centrefunds/internal/sheets"
)

// Report is what the allocate command prints.
type Report struct {
	Range       string            `json:"range"`
	RunID       string            `json:"runId,omitempty"`
	Allocations []core.Allocation `json:"allocations"`
	Stats       *allocation.Stats `json:"stats,omitempty"`
}

// WriteReport renders rep as indented JSON or as a table laid out like the
// exported sheet.
func WriteReport(w io.Writer, format string, rep Report) error {
	switch format {
	case FormatJSON:
		if rep.Allocations == nil {
			rep.Allocations = []core.Allocation{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatTable:
		return writeTable(w, rep)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeTable(w io.Writer, rep Report) error {
	if rep.RunID != "" {
		if _, err := fmt.Fprintf(w, "Run %s\n", rep.RunID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Period %s\n\n", rep.Range); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range sheets.Rows(rep.Allocations) {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	empty := 0
	for _, a := range rep.Allocations {
		if a.IsEmpty() {
			empty++
		}
	}
	total := allocation.Sum(rep.Allocations)
	if _, err := fmt.Fprintf(w, "\nRemitted to centres %s, centre fund %s, %d centres without payments\n",
		core.FormatAmount(total.RemittedToCentre), core.FormatAmount(total.ContributionToCentreFund), empty); err != nil {
		return err
	}

	if rep.Stats != nil {
		st := rep.Stats
		_, err := fmt.Fprintf(w, "%d payments considered, %d retained, %d out of range, %d unknown centre, %d without category\n",
			st.Considered, st.Retained, st.OutOfRange, st.DroppedUnknownCentre, st.DroppedNoCategory)
		return err
	}
	return nil
}
