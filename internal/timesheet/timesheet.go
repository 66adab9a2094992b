// Package timesheet turns the extracted text of a monthly duty roster into
// dated shift entries. Parsing is pure: no I/O, no shared state, and data
// quality problems never produce errors.
package timesheet

import (
	"errors"

	"github.com/Tiliavir/shiftplan/internal/classify"
	"github.com/Tiliavir/shiftplan/internal/mapping"
	"github.com/Tiliavir/shiftplan/internal/model"
)

var (
	ErrNoClassifier = errors.New("timesheet: classifier is nil")
	ErrNoTable      = errors.New("timesheet: mapping table is nil")
)

// Diagnostics describes what a parse skipped or degraded.
type Diagnostics struct {
	Lines        int `json:"lines"`
	Skipped      int `json:"skipped"`
	BeforeHeader int `json:"before_header"`
	// InvalidDates lists lines that matched but named no valid calendar day.
	InvalidDates []int `json:"invalid_dates,omitempty"`
	Primary      int   `json:"primary"`
	OnCall       int   `json:"on_call"`
	Composites   int   `json:"composites"`
	// Cuts lists chains that were stopped at the link limit.
	Cuts []ChainCut `json:"cuts,omitempty"`
	// Unknown lists distinct time ranges without a mapping, sorted.
	Unknown []string `json:"unknown,omitempty"`
}

// Result is the outcome of Parse. Year and Month are empty and Entries is
// empty when the document had no month/year header.
type Result struct {
	Year        string        `json:"year"`
	Month       string        `json:"month"`
	Entries     []model.Entry `json:"entries"`
	Diagnostics Diagnostics   `json:"diagnostics"`
}

// HasHeader reports whether a month/year header was found.
func (r Result) HasHeader() bool {
	return r.Year != "" && r.Month != ""
}

// Parse interprets text with the institution classifier c and resolves codes
// through table.
func Parse(text string, c classify.Classifier, table *mapping.Table) (Result, error) {
	if c == nil {
		return Result{}, ErrNoClassifier
	}
	if table == nil {
		return Result{}, ErrNoTable
	}

	res := Result{Entries: []model.Entry{}}
	s := scan(text, c, &res.Diagnostics)
	if s.year == "" || s.month == "" {
		return res, nil
	}
	res.Year, res.Month = s.year, s.month
	res.Diagnostics.Primary = len(s.primary)
	res.Diagnostics.OnCall = len(s.onCall)

	r := reconcile(s.primary, s.onCall)
	res.Diagnostics.Composites = len(r.composites)
	res.Diagnostics.Cuts = r.cuts

	res.Entries = assemble(r, table, &res.Diagnostics)
	return res, nil
}
