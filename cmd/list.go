package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftplan/internal/model"
	"github.com/Tiliavir/shiftplan/internal/storage"
	"github.com/Tiliavir/shiftplan/internal/timecalc"
)

var listMonth string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the shifts of a stored month",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listMonth, "month", "", "Month to show (YYYY-MM); defaults to the latest converted month")
}

func runList(cmd *cobra.Command, args []string) error {
	m := loadMonth(baseDir(), listMonth)
	fmt.Printf("%s  %s/%s/%s/%s\n", m.Key(), m.Hospital, m.Profession, m.Area, m.Preset)
	printEntries(m.Entries)
	return nil
}

// loadMonth loads the month given as YYYY-MM, or the latest stored month
// when key is empty. It exits on failure.
func loadMonth(base, key string) model.Month {
	var (
		m   model.Month
		err error
	)
	if key == "" {
		m, err = storage.LatestMonth(base)
	} else {
		if _, _, perr := timecalc.ParseMonthKey(key); perr != nil {
			fail(exitUsage, perr)
		}
		m, err = storage.LoadMonth(base, key)
	}
	if errors.Is(err, storage.ErrNoMonth) {
		fail(exitUsage, fmt.Errorf("%w; convert a roster first: shiftplan convert <file>", err))
	}
	if err != nil {
		fail(exitIO, err)
	}
	return m
}

// printEntries groups entries by date and prints them.
func printEntries(entries []model.Entry) {
	if len(entries) == 0 {
		fmt.Println("No entries found.")
		return
	}

	var currentDay string
	for _, e := range entries {
		if e.Date != currentDay {
			fmt.Println(e.Date)
			currentDay = e.Date
		}
		fmt.Printf("  %-11s  %s%s\n", timeRange(e), e.Code, unverified(e))
	}
}

func timeRange(e model.Entry) string {
	if e.AllDay {
		return "all day"
	}
	return e.Start + "–" + e.End
}

func unverified(e model.Entry) string {
	if e.Validated {
		return ""
	}
	return "  (unverified)"
}
