package timesheet

import (
	"github.com/Tiliavir/shiftplan/internal/model"
	"github.com/Tiliavir/shiftplan/internal/timecalc"
)

// maxChainLinks caps how many on-call segments one primary entry may absorb.
const maxChainLinks = 10

// midnight is matched as a plain string in both the start and end position.
const midnight = "00:00"

// ChainCut records a composite that was cut at maxChainLinks while a further
// continuation was still available.
type ChainCut struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	Line  int    `json:"line"`
}

type reconciled struct {
	primaries  []model.RawEntry
	composites []model.RawEntry
	onCall     []model.RawEntry
	cuts       []ChainCut
}

// reconcile fuses each timed primary entry with the on-call segments that
// continue it. Consumed segments are dropped; the rest stay standalone.
func reconcile(primary, onCall []model.RawEntry) reconciled {
	var out reconciled
	consumed := make([]bool, len(onCall))

	for _, p := range primary {
		if p.AllDay {
			out.primaries = append(out.primaries, p)
			continue
		}

		links := 0
		currentEnd, currentDate := p.End, p.Date
		for links < maxChainLinks {
			idx := nextLink(onCall, consumed, currentEnd, currentDate)
			if idx < 0 {
				break
			}
			consumed[idx] = true
			currentEnd, currentDate = onCall[idx].End, onCall[idx].Date
			links++
		}
		if links == maxChainLinks && nextLink(onCall, consumed, currentEnd, currentDate) >= 0 {
			out.cuts = append(out.cuts, ChainCut{Date: p.Date, Start: p.Start, Line: p.Line})
		}

		if links == 0 {
			out.primaries = append(out.primaries, p)
			continue
		}
		composite := p
		composite.End = currentEnd
		out.composites = append(out.composites, composite)
	}

	for i, oc := range onCall {
		if !consumed[i] {
			out.onCall = append(out.onCall, oc)
		}
	}
	return out
}

// nextLink returns the index of the first unconsumed segment continuing a
// chain that currently ends at end on date, or -1.
func nextLink(onCall []model.RawEntry, consumed []bool, end, date string) int {
	nextDay := ""
	if end == midnight {
		nextDay = timecalc.NextDay(date)
	}
	for i, oc := range onCall {
		if consumed[i] {
			continue
		}
		if oc.Start == end && oc.Date == date {
			return i
		}
		if nextDay != "" && oc.Start == midnight && oc.Date == nextDay {
			return i
		}
	}
	return -1
}
