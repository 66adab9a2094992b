package model

import (
	"time"

	"github.com/Tiliavir/shiftplan/internal/timecalc"
)

// Kind identifies what a raw roster line described.
type Kind string

const (
	KindWork     Kind = "WORK"
	KindVacation Kind = "URLAUB"
	KindSickness Kind = "KRANK"
	KindHoliday  Kind = "FEIERTAG"
	KindOnCall   Kind = "BEREITSCHAFT"
)

// AllDay reports whether entries of this kind span a whole day.
func (k Kind) AllDay() bool {
	return k == KindVacation || k == KindSickness || k == KindHoliday
}

// RawEntry is a parsed roster line before chaining and code resolution.
// Dates are YYYY-MM-DD, times HH:MM. All-day entries carry no times.
type RawEntry struct {
	Date   string
	Start  string
	End    string
	AllDay bool
	Kind   Kind
	// Line is the 1-based source line, kept for diagnostics only.
	Line int
}

// Entry is a finalized shift ready for export.
type Entry struct {
	Date      string `json:"date"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	AllDay    bool   `json:"all_day"`
	Code      string `json:"code"`
	Validated bool   `json:"validated"`
}

// Month is the top-level structure stored for each converted roster.
type Month struct {
	Year        string    `json:"year"`
	Month       string    `json:"month"`
	Hospital    string    `json:"hospital"`
	Profession  string    `json:"profession"`
	Area        string    `json:"area"`
	Preset      string    `json:"preset"`
	Source      string    `json:"source"`
	ConvertedAt time.Time `json:"converted_at"`
	Entries     []Entry   `json:"entries"`
}

// Key returns the month as "YYYY-MM".
func (m Month) Key() string {
	return timecalc.MonthKey(m.Year, m.Month)
}
