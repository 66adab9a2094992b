package gcal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/shiftplan/internal/export"
	"github.com/Tiliavir/shiftplan/internal/model"
	"github.com/Tiliavir/shiftplan/internal/timecalc"
)

// CalendarAPI is the part of the Calendar API a sync needs.
type CalendarAPI interface {
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	InsertEvent(ctx context.Context, calendarID string, ev Event) (Event, error)
}

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Created int
	Deleted int
	Errors  int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	CalendarID string
	Timezone   string
	// Colors maps shift codes to "#rrggbb".
	Colors map[string]string
	// OnlyImported restricts deletion to events this tool created.
	OnlyImported bool
	DryRun       bool
	Out          io.Writer
	Logger       *zap.Logger
}

// Summary returns the event title: the code, followed by the times for
// timed entries.
func Summary(e model.Entry) string {
	if e.AllDay || e.Start == "" || e.End == "" {
		return e.Code
	}
	return fmt.Sprintf("%s %s–%s", e.Code, e.Start, e.End)
}

// description notes the automatic import and the values it was built from.
func description(e model.Entry) string {
	if e.AllDay {
		return export.Description + "\nOriginal: " + e.Code
	}
	return fmt.Sprintf("%s\nOriginal: %s, %s, %s", export.Description, e.Code, e.Start, e.End)
}

// EventFor builds the calendar event for one entry. All-day events end on
// the following day; timed events ending before they start end on the
// following day too.
func EventFor(e model.Entry, timezone string, colors map[string]string) (Event, error) {
	ev := Event{
		Summary:     Summary(e),
		Description: description(e),
		ColorID:     ColorID(colors[e.Code]),
	}

	if e.AllDay {
		next, err := timecalc.AddDays(e.Date, 1)
		if err != nil {
			return Event{}, err
		}
		ev.Start = EventTime{Date: e.Date}
		ev.End = EventTime{Date: next}
		return ev, nil
	}

	if _, err := timecalc.ClockMinutes(e.Start); err != nil {
		return Event{}, err
	}
	if _, err := timecalc.ClockMinutes(e.End); err != nil {
		return Event{}, err
	}
	endDate := e.Date
	if timecalc.CrossesMidnight(e.Start, e.End) {
		next, err := timecalc.AddDays(e.Date, 1)
		if err != nil {
			return Event{}, err
		}
		endDate = next
	}
	ev.Start = EventTime{DateTime: e.Date + "T" + e.Start + ":00", TimeZone: timezone}
	ev.End = EventTime{DateTime: endDate + "T" + e.End + ":00", TimeZone: timezone}
	return ev, nil
}

// Range returns the span from the first entry date at 00:00 to the last
// entry date at 23:59:59 in loc.
func Range(entries []model.Entry, loc *time.Location) (time.Time, time.Time, error) {
	if len(entries) == 0 {
		return time.Time{}, time.Time{}, errors.New("no entries")
	}
	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		dates = append(dates, e.Date)
	}
	sort.Strings(dates)

	from, err := timecalc.InLocation(dates[0], "", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last, err := timecalc.InLocation(dates[len(dates)-1], "", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, timecalc.EndOfDay(last), nil
}

// Sync replaces the calendar contents in the range spanned by entries with
// one event per entry. Failed deletes and inserts are counted and skipped.
func Sync(ctx context.Context, api CalendarAPI, entries []model.Entry, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	if len(entries) == 0 {
		return result, nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	tz := opts.Timezone
	if tz == "" {
		tz = export.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return result, fmt.Errorf("loading timezone %q: %w", tz, err)
	}

	events := make([]Event, 0, len(entries))
	for _, e := range entries {
		ev, err := EventFor(e, tz, opts.Colors)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping %s %s: %v\n", e.Date, e.Code, err)
			result.Errors++
			continue
		}
		events = append(events, ev)
	}

	from, to, err := Range(entries, loc)
	if err != nil {
		return result, err
	}
	existing, err := api.ListEvents(ctx, opts.CalendarID, from, to)
	if err != nil {
		return result, fmt.Errorf("listing events: %w", err)
	}
	logger.Debug("clearing calendar range",
		zap.String("calendar", opts.CalendarID),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("events", len(existing)))

	for _, ev := range existing {
		if opts.OnlyImported && !strings.HasPrefix(ev.Description, export.Description) {
			continue
		}
		if opts.DryRun {
			fmt.Fprintf(out, "  – Would delete: %s\n", ev.Summary)
			result.Deleted++
			continue
		}
		if err := api.DeleteEvent(ctx, opts.CalendarID, ev.ID); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			fmt.Fprintf(out, "  ! Error deleting %q: %v\n", ev.Summary, err)
			result.Errors++
			continue
		}
		fmt.Fprintf(out, "  ✗ Deleted:  %s\n", ev.Summary)
		result.Deleted++
	}

	for _, ev := range events {
		if opts.DryRun {
			fmt.Fprintf(out, "  + Would create: %s %s\n", eventDate(ev), ev.Summary)
			result.Created++
			continue
		}
		if _, err := api.InsertEvent(ctx, opts.CalendarID, ev); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			fmt.Fprintf(out, "  ! Error creating %q: %v\n", ev.Summary, err)
			result.Errors++
			continue
		}
		fmt.Fprintf(out, "  ✓ Created:  %s %s\n", eventDate(ev), ev.Summary)
		result.Created++
	}
	return result, nil
}

func eventDate(ev Event) string {
	if ev.Start.Date != "" {
		return ev.Start.Date
	}
	date, _, _ := strings.Cut(ev.Start.DateTime, "T")
	return date
}
