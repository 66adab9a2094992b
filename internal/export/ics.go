package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Tiliavir/shiftplan/internal/model"
	"github.com/Tiliavir/shiftplan/internal/timecalc"
)

const prodID = "-//ShiftPlanConverter//DE"

// uidSpace scopes the name-based UIDs of exported events.
var uidSpace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("shiftplan"))

// maxLineOctets is the longest content line before folding.
const maxLineOctets = 75

// EventUID derives a stable UID from the entry itself. occurrence separates
// identical entries.
func EventUID(e model.Entry, occurrence int) string {
	name := fmt.Sprintf("%s|%s|%s|%s|%d", e.Date, e.Start, e.End, e.Code, occurrence)
	return uuid.NewSHA1(uidSpace, []byte(name)).String() + "@shiftplan"
}

// WriteICS writes an iCalendar document with one VEVENT per entry.
func WriteICS(w io.Writer, entries []model.Entry, opts Options) error {
	bw := bufio.NewWriter(w)
	line := func(s string) {
		writeFolded(bw, s)
	}

	tz := opts.timezone()
	stamp := opts.stamp().Format("20060102T150405Z")

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:" + prodID)
	line("CALSCALE:GREGORIAN")

	seen := map[string]int{}
	for _, e := range entries {
		key := e.Date + "|" + e.Start + "|" + e.End + "|" + e.Code
		occurrence := seen[key]
		seen[key]++

		line("BEGIN:VEVENT")
		line("UID:" + EventUID(e, occurrence))
		line("DTSTAMP:" + stamp)
		line("SUMMARY:" + escapeText(e.Code))
		line("DESCRIPTION:" + escapeText(Description))
		if e.AllDay {
			next := timecalc.NextDay(e.Date)
			if next == "" {
				return fmt.Errorf("entry with invalid date %q", e.Date)
			}
			line("DTSTART;VALUE=DATE:" + compactDate(e.Date))
			line("DTEND;VALUE=DATE:" + compactDate(next))
		} else {
			endDate := e.Date
			if timecalc.CrossesMidnight(e.Start, e.End) {
				endDate = timecalc.NextDay(e.Date)
				if endDate == "" {
					return fmt.Errorf("entry with invalid date %q", e.Date)
				}
			}
			line(fmt.Sprintf("DTSTART;TZID=%s:%s", tz, compactDateTime(e.Date, e.Start)))
			line(fmt.Sprintf("DTEND;TZID=%s:%s", tz, compactDateTime(endDate, e.End)))
		}
		line("END:VEVENT")
	}
	line("END:VCALENDAR")

	return bw.Flush()
}

func compactDate(date string) string {
	return strings.ReplaceAll(date, "-", "")
}

func compactDateTime(date, clock string) string {
	return compactDate(date) + "T" + strings.ReplaceAll(clock, ":", "") + "00"
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// writeFolded writes one CRLF terminated content line, folding it after
// maxLineOctets without splitting a UTF-8 sequence.
func writeFolded(w *bufio.Writer, s string) {
	limit := maxLineOctets
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		w.WriteString(s[:cut])
		w.WriteString("\r\n ")
		s = s[cut:]
		// continuation lines start with a space
		limit = maxLineOctets - 1
	}
	w.WriteString(s)
	w.WriteString("\r\n")
}
