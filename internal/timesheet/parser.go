package timesheet

import (
	"strings"

	"github.com/Tiliavir/shiftplan/internal/classify"
	"github.com/Tiliavir/shiftplan/internal/model"
	"github.com/Tiliavir/shiftplan/internal/timecalc"
)

type state int

const (
	seekingHeader state = iota
	mainLog
	onCall
)

// scanned is the raw outcome of one pass over the document.
type scanned struct {
	year, month string
	primary     []model.RawEntry
	onCall      []model.RawEntry
}

var kindOf = map[classify.Category]model.Kind{
	classify.Work:     model.KindWork,
	classify.Vacation: model.KindVacation,
	classify.Sickness: model.KindSickness,
	classify.Holiday:  model.KindHoliday,
	classify.OnCall:   model.KindOnCall,
}

// scan walks the lines once in document order. The header is captured
// once; the separator switches to the on-call section for good.
func scan(text string, c classify.Classifier, diag *Diagnostics) scanned {
	var out scanned
	st := seekingHeader

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		lineNo := i + 1
		diag.Lines++

		if out.year == "" {
			if month, year, ok := c.Header(line); ok {
				out.month, out.year = month, year
				if st == seekingHeader {
					st = mainLog
				}
			}
		}

		if c.IsSeparator(line) {
			st = onCall
			continue
		}

		phase := classify.MainLog
		if st == onCall {
			phase = classify.OnCallSection
		}
		m, ok := c.Classify(line, phase)
		if !ok {
			diag.Skipped++
			continue
		}

		if phase == classify.OnCallSection {
			e, ok := onCallEntry(m, lineNo)
			if !ok {
				diag.InvalidDates = append(diag.InvalidDates, lineNo)
				continue
			}
			out.onCall = append(out.onCall, e)
			continue
		}

		if out.year == "" {
			diag.BeforeHeader++
			continue
		}
		e, ok := primaryEntry(m, out.year, out.month, lineNo)
		if !ok {
			diag.InvalidDates = append(diag.InvalidDates, lineNo)
			continue
		}
		out.primary = append(out.primary, e)
	}

	return out
}

func primaryEntry(m classify.Match, year, month string, lineNo int) (model.RawEntry, bool) {
	kind, ok := kindOf[m.Category]
	if !ok || kind == model.KindOnCall {
		return model.RawEntry{}, false
	}
	date, err := timecalc.BuildDate(year, month, m.Group(classify.GroupDay))
	if err != nil {
		return model.RawEntry{}, false
	}
	e := model.RawEntry{Date: date, Kind: kind, Line: lineNo, AllDay: kind.AllDay()}
	if !e.AllDay {
		e.Start = m.Group(classify.GroupStart)
		e.End = m.Group(classify.GroupEnd)
	}
	return e, true
}

// onCallEntry uses the date printed on the line itself, never the header.
func onCallEntry(m classify.Match, lineNo int) (model.RawEntry, bool) {
	var (
		date string
		err  error
	)
	if d := m.Group(classify.GroupDate); d != "" {
		date, err = timecalc.GermanDate(d)
	} else {
		date, err = timecalc.BuildDate(m.Group(classify.GroupYear), m.Group(classify.GroupMonth), m.Group(classify.GroupDay))
	}
	if err != nil {
		return model.RawEntry{}, false
	}
	return model.RawEntry{
		Date:  date,
		Start: m.Group(classify.GroupStart),
		End:   m.Group(classify.GroupEnd),
		Kind:  model.KindOnCall,
		Line:  lineNo,
	}, true
}
