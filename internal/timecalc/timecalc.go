package timecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of roster dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// NextDay returns the date after date, or "" if date is not a valid YYYY-MM-DD.
func NextDay(date string) string {
	next, err := AddDays(date, 1)
	if err != nil {
		return ""
	}
	return next
}

// BuildDate assembles a validated YYYY-MM-DD date from its parts.
// Single-digit day and month values are zero padded.
func BuildDate(year, month, day string) (string, error) {
	date := fmt.Sprintf("%s-%s-%s", year, pad2(month), pad2(day))
	if _, err := ParseDate(date); err != nil {
		return "", err
	}
	return date, nil
}

// GermanDate converts a DD.MM.YYYY date to YYYY-MM-DD.
func GermanDate(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid date %q: want DD.MM.YYYY", s)
	}
	return BuildDate(parts[2], parts[1], parts[0])
}

// ClockMinutes parses an HH:MM time of day into minutes after midnight.
func ClockMinutes(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hours*60 + minutes, nil
}

// CrossesMidnight reports whether a shift from start to end ends on the
// following day. HH:MM strings compare lexically in clock order.
func CrossesMidnight(start, end string) bool {
	return start != "" && end != "" && end < start
}

// SpanMinutes returns the length of a shift from start to end in minutes,
// wrapping past midnight when end is not after start.
func SpanMinutes(start, end string) (int, error) {
	s, err := ClockMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := ClockMinutes(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		e += 24 * 60
	}
	return e - s, nil
}

// MonthKey formats a year and month as "YYYY-MM".
func MonthKey(year, month string) string {
	return year + "-" + pad2(month)
}

// ParseMonthKey splits a "YYYY-MM" key into its year and month.
func ParseMonthKey(key string) (string, string, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q: want YYYY-MM", key)
	}
	return t.Format("2006"), t.Format("01"), nil
}

// InLocation combines a YYYY-MM-DD date and an optional HH:MM time in loc.
func InLocation(date, clock string, loc *time.Location) (time.Time, error) {
	if clock == "" {
		clock = "00:00"
	}
	t, err := time.ParseInLocation(DateLayout+" 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %s %s: %w", date, clock, err)
	}
	return t, nil
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatHours formats minutes as decimal hours with two places, e.g. "8.25".
func FormatHours(minutes int64) string {
	return fmt.Sprintf("%d.%02d", minutes/60, (minutes%60)*100/60)
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
