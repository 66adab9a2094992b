package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftplan/internal/export"
	"github.com/Tiliavir/shiftplan/internal/model"
)

var (
	exportMonth  string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored month as CSV, ICS, JSON or XLSX",
	Long: `Export a stored month. Text formats go to stdout unless --out is given;
XLSX is written to dienstplan-<YYYY-MM>.xlsx when no --out is given.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportMonth, "month", "", "Month to export (YYYY-MM); defaults to the latest converted month")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, ics, json, xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (\"-\" for stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		fail(exitUsage, err)
	}
	m := loadMonth(baseDir(), exportMonth)

	out := exportTarget(exportOut, format, m)
	if out == "-" {
		return writeExport(os.Stdout, format, m.Entries)
	}

	f, err := os.Create(out)
	if err != nil {
		fail(exitIO, fmt.Errorf("creating %s: %w", out, err))
	}
	if err := writeExport(f, format, m.Entries); err != nil {
		f.Close()
		fail(exitIO, err)
	}
	if err := f.Close(); err != nil {
		fail(exitIO, fmt.Errorf("writing %s: %w", out, err))
	}
	fmt.Fprintf(os.Stderr, "Exported %d entries to %s\n", len(m.Entries), out)
	return nil
}

// exportTarget returns the output path for an export: the explicit path,
// "-" for stdout, or a generated file name for binary formats.
func exportTarget(out string, format export.Format, m model.Month) string {
	switch {
	case out != "":
		return out
	case format == export.XLSX:
		return exportFileName(m, format)
	default:
		return "-"
	}
}

// exportFileName returns the default file name for a month export.
func exportFileName(m model.Month, format export.Format) string {
	return "dienstplan-" + m.Key() + format.Extension()
}

func writeExport(w io.Writer, format export.Format, entries []model.Entry) error {
	return export.Write(w, format, entries, export.Options{Timezone: cfg.Timezone})
}
