package timesheet

import (
	"sort"

	"github.com/Tiliavir/shiftplan/internal/mapping"
	"github.com/Tiliavir/shiftplan/internal/model"
)

// assemble resolves unchained primaries, then composites, then standalone
// on-call segments, and orders the result by date. Entries on the same date
// keep that production order.
func assemble(r reconciled, table *mapping.Table, diag *Diagnostics) []model.Entry {
	n := len(r.primaries) + len(r.composites) + len(r.onCall)
	entries := make([]model.Entry, 0, n)

	unknown := map[string]bool{}
	for _, group := range [][]model.RawEntry{r.primaries, r.composites, r.onCall} {
		for _, raw := range group {
			e := Resolve(raw, table)
			if !e.AllDay && IsUnknown(e.Code) {
				key := mapping.RangeKey(e.Start, e.End)
				if !unknown[key] {
					unknown[key] = true
					diag.Unknown = append(diag.Unknown, key)
				}
			}
			entries = append(entries, e)
		}
	}
	sort.Strings(diag.Unknown)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
	return entries
}
