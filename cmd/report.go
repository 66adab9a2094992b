package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftplan/internal/model"
	"github.com/Tiliavir/shiftplan/internal/timecalc"
	"github.com/Tiliavir/shiftplan/internal/timesheet"
)

var (
	reportMonth  string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show shift counts and hours per code",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "Month to report (YYYY-MM); defaults to the latest converted month")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

// codeTotal aggregates the entries of one shift code.
type codeTotal struct {
	Code    string `json:"code" csv:"code"`
	Count   int    `json:"count" csv:"count"`
	Minutes int64  `json:"minutes" csv:"minutes"`
	AllDay  bool   `json:"all_day" csv:"all_day"`
}

// monthReport is the aggregate of one month.
type monthReport struct {
	Month        string      `json:"month"`
	Codes        []codeTotal `json:"codes"`
	TotalMinutes int64       `json:"total_minutes"`
	Unknown      []string    `json:"unknown"`
}

// aggregate totals entries per code, ordered by code. Timed entries add
// their span, all-day entries only count. Unmapped ranges are collected
// separately and not totalled.
func aggregate(key string, entries []model.Entry) monthReport {
	r := monthReport{Month: key, Codes: []codeTotal{}, Unknown: []string{}}
	byCode := map[string]*codeTotal{}
	seen := map[string]bool{}

	for _, e := range entries {
		if timesheet.IsUnknown(e.Code) {
			if !seen[e.Code] {
				seen[e.Code] = true
				r.Unknown = append(r.Unknown, e.Code)
			}
			continue
		}
		t, ok := byCode[e.Code]
		if !ok {
			t = &codeTotal{Code: e.Code, AllDay: e.AllDay}
			byCode[e.Code] = t
		}
		t.Count++
		if e.AllDay {
			continue
		}
		span, err := timecalc.SpanMinutes(e.Start, e.End)
		if err != nil {
			continue
		}
		t.Minutes += int64(span)
		r.TotalMinutes += int64(span)
	}

	for _, t := range byCode {
		r.Codes = append(r.Codes, *t)
	}
	sort.Slice(r.Codes, func(i, j int) bool { return r.Codes[i].Code < r.Codes[j].Code })
	sort.Strings(r.Unknown)
	return r
}

func runReport(cmd *cobra.Command, args []string) error {
	m := loadMonth(baseDir(), reportMonth)
	r := aggregate(m.Key(), m.Entries)

	switch reportFormat {
	case "csv":
		if err := gocsv.Marshal(&r.Codes, os.Stdout); err != nil {
			fail(exitIO, err)
		}
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			fail(exitIO, fmt.Errorf("error encoding JSON: %w", err))
		}
		fmt.Println(string(data))
	case "md":
		fmt.Printf("Month %s\n", r.Month)
		fmt.Println("--------------------------------")
		for _, t := range r.Codes {
			hours := "–"
			if !t.AllDay {
				hours = timecalc.FormatHours(t.Minutes) + " h"
			}
			fmt.Printf("%-12s%4d×  %s\n", t.Code, t.Count, hours)
		}
		fmt.Println("--------------------------------")
		fmt.Printf("%-12s       %s h\n", "Total", timecalc.FormatHours(r.TotalMinutes))
		if len(r.Unknown) > 0 {
			fmt.Println()
			fmt.Println("Unmapped:")
			for _, u := range r.Unknown {
				fmt.Printf("  %s\n", u)
			}
		}
	default:
		fail(exitUsage, fmt.Errorf("unknown report format %q (want md, csv or json)", reportFormat))
	}
	return nil
}
