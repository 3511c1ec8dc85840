package cli

import (
	"flag"
	"fmt"
	"io"
	"slices"
)

// Modes of the allocate command.
const (
	ModePreview  = "preview"
	ModeTotals   = "totals"
	ModeStored   = "stored"
	ModeClose    = "close"
	ModeReexport = "reexport"
)

// Output formats of the allocate command.
const (
	FormatJSON  = "json"
	FormatTable = "table"
)

var (
	modes   = []string{ModePreview, ModeTotals, ModeStored, ModeClose, ModeReexport}
	formats = []string{FormatJSON, FormatTable}
)

// AllocateFlags are the flags of the one-shot allocate command.
type AllocateFlags struct {
	Start  string
	End    string
	DBPath string
	Mode   string
	Format string
}

// ParseAllocateFlags parses args into AllocateFlags. Usage and parse errors
// are written to out.
func ParseAllocateFlags(args []string, out io.Writer) (AllocateFlags, error) {
	var flags AllocateFlags

	fs := flag.NewFlagSet("allocate", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&flags.Start, "start", "", "First day of the period (YYYY-MM-DD)")
	fs.StringVar(&flags.End, "end", "", "Last day of the period (YYYY-MM-DD)")
	fs.StringVar(&flags.DBPath, "db", "", "Path to database file (uses SQLITE_DB_PATH if not specified)")
	fs.StringVar(&flags.Mode, "mode", ModePreview, "One of preview, totals, stored, close, reexport")
	fs.StringVar(&flags.Format, "format", FormatJSON, "Output format: json or table")

	if err := fs.Parse(args); err != nil {
		return AllocateFlags{}, err
	}

	if flags.Start == "" || flags.End == "" {
		return AllocateFlags{}, fmt.Errorf("-start and -end are required")
	}
	if !slices.Contains(modes, flags.Mode) {
		return AllocateFlags{}, fmt.Errorf("unknown mode %q", flags.Mode)
	}
	if !slices.Contains(formats, flags.Format) {
		return AllocateFlags{}, fmt.Errorf("unknown format %q", flags.Format)
	}
	return flags, nil
}
