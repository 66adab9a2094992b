// Package export writes finalized roster entries in the formats calendar
// tools and spreadsheets understand.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Tiliavir/shiftplan/internal/model"
)

// Format is an output format.
type Format string

const (
	CSV  Format = "csv"
	ICS  Format = "ics"
	JSON Format = "json"
	XLSX Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, ICS, JSON, XLSX}

// DefaultTimezone is the TZID of timed calendar events.
const DefaultTimezone = "Europe/Berlin"

// Description is attached to every exported calendar event.
const Description = "Automatisch importiert aus Dienstplan – keine Gewähr."

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want csv, ics, json or xlsx)", s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Options tune individual formats. The zero value is usable.
type Options struct {
	// Timezone is the TZID of timed ICS events.
	Timezone string
	// Stamp is written as DTSTAMP; zero means now.
	Stamp time.Time
}

func (o Options) timezone() string {
	if o.Timezone == "" {
		return DefaultTimezone
	}
	return o.Timezone
}

func (o Options) stamp() time.Time {
	if o.Stamp.IsZero() {
		return time.Now().UTC()
	}
	return o.Stamp.UTC()
}

// Write encodes entries in format f to w.
func Write(w io.Writer, f Format, entries []model.Entry, opts Options) error {
	switch f {
	case CSV:
		return WriteCSV(w, entries)
	case ICS:
		return WriteICS(w, entries, opts)
	case JSON:
		return WriteJSON(w, entries)
	case XLSX:
		return WriteXLSX(w, entries)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []model.Entry) error {
	if entries == nil {
		entries = []model.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
