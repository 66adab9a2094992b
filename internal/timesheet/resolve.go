package timesheet

import (
	"strings"

	"github.com/Tiliavir/shiftplan/internal/mapping"
	"github.com/Tiliavir/shiftplan/internal/model"
)

// UnknownPrefix starts the code of every entry whose time range has no
// mapping.
const UnknownPrefix = "⚠ "

// UnknownCode returns the marker code for an unmapped time range.
func UnknownCode(start, end string) string {
	return UnknownPrefix + mapping.RangeKey(start, end)
}

// IsUnknown reports whether code is an unknown-shift marker.
func IsUnknown(code string) bool {
	return strings.HasPrefix(code, UnknownPrefix)
}

// Resolve maps a raw entry to its final code. All-day entries look up their
// special key and fall back to the category name. Timed entries look up the
// exact range and fall back to the unknown marker.
func Resolve(e model.RawEntry, table *mapping.Table) model.Entry {
	out := model.Entry{Date: e.Date, AllDay: e.AllDay}

	if e.AllDay {
		if v, ok := table.Lookup(mapping.SpecialKey(string(e.Kind))); ok {
			out.Code, out.Validated = v.Code, v.Validated
			return out
		}
		out.Code, out.Validated = string(e.Kind), true
		return out
	}

	out.Start, out.End = e.Start, e.End
	if v, ok := table.Lookup(mapping.RangeKey(e.Start, e.End)); ok {
		out.Code, out.Validated = v.Code, v.Validated
		return out
	}
	out.Code, out.Validated = UnknownCode(e.Start, e.End), false
	return out
}
