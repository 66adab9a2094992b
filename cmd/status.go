package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftplan/internal/storage"
	"github.com/Tiliavir/shiftplan/internal/timecalc"
	"github.com/Tiliavir/shiftplan/internal/timesheet"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active selection and the state of the latest month",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	base := baseDir()

	fmt.Println("Selection:")
	fmt.Printf("  Hospital: %s\n", cfg.Hospital)
	fmt.Printf("  Profession/Area/Preset: %s/%s/%s\n", cfg.Profession, cfg.Area, cfg.Preset)
	sel, err := configured(base, registry())
	if err != nil {
		fmt.Printf("  ! %v\n", err)
	} else {
		source := "built-in"
		if sel.overridden {
			source = "user overrides"
		}
		fmt.Printf("  Mappings: %d (%s)\n", sel.table.Len(), source)
	}

	m, err := storage.LatestMonth(base)
	if errors.Is(err, storage.ErrNoMonth) {
		fmt.Println()
		fmt.Println("No converted month yet.")
		return nil
	}
	if err != nil {
		fail(exitIO, err)
	}

	var unknown, unverified int
	for _, e := range m.Entries {
		switch {
		case timesheet.IsUnknown(e.Code):
			unknown++
		case !e.Validated:
			unverified++
		}
	}

	fmt.Println()
	age := timecalc.FormatDuration(int64(time.Since(m.ConvertedAt).Seconds()))
	fmt.Printf("Latest month: %s (from %s, converted %s ago)\n", m.Key(), m.Source, age)
	fmt.Printf("  %d shifts, %d unmapped, %d unverified\n", len(m.Entries), unknown, unverified)
	return nil
}
