package export_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Tiliavir/shiftplan/internal/export"
	"github.com/Tiliavir/shiftplan/internal/model"
)

var sample = []model.Entry{
	{Date: "2024-03-05", Start: "07:35", End: "15:50", Code: "F", Validated: true},
	{Date: "2024-03-10", Start: "11:35", End: "07:35", Code: "MO", Validated: true},
	{Date: "2024-03-12", AllDay: true, Code: "URLAUB", Validated: true},
	{Date: "2024-03-16", Start: "07:40", End: "15:55", Code: "⚠ 07:40-15:55"},
}

func TestParseFormat(t *testing.T) {
	f, err := export.ParseFormat(" ICS ")
	require.NoError(t, err)
	assert.Equal(t, export.ICS, f)
	assert.Equal(t, ".ics", f.Extension())

	_, err = export.ParseFormat("pdf")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, export.CSV, sample, export.Options{}))

	want := "date,code,start,end\n" +
		"2024-03-05,F,07:35,15:50\n" +
		"2024-03-10,MO,11:35,07:35\n" +
		"2024-03-12,URLAUB,,\n" +
		"2024-03-16,⚠ 07:40-15:55,07:40,15:55\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVQuotes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, []model.Entry{{Date: "2024-03-05", AllDay: true, Start: "x", Code: "F,1"}}))
	assert.Equal(t, "date,code,start,end\n2024-03-05,\"F,1\",,\n", buf.String())
}

func TestWriteICS(t *testing.T) {
	stamp := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, export.ICS, sample[:3], export.Options{Stamp: stamp}))

	out := buf.String()
	require.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")

	want := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//ShiftPlanConverter//DE",
		"CALSCALE:GREGORIAN",
		"BEGIN:VEVENT",
		"UID:" + export.EventUID(sample[0], 0),
		"DTSTAMP:20240401T080000Z",
		"SUMMARY:F",
		"DESCRIPTION:Automatisch importiert aus Dienstplan – keine Gewähr.",
		"DTSTART;TZID=Europe/Berlin:20240305T073500",
		"DTEND;TZID=Europe/Berlin:20240305T155000",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:" + export.EventUID(sample[1], 0),
		"DTSTAMP:20240401T080000Z",
		"SUMMARY:MO",
		"DESCRIPTION:Automatisch importiert aus Dienstplan – keine Gewähr.",
		"DTSTART;TZID=Europe/Berlin:20240310T113500",
		"DTEND;TZID=Europe/Berlin:20240311T073500",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:" + export.EventUID(sample[2], 0),
		"DTSTAMP:20240401T080000Z",
		"SUMMARY:URLAUB",
		"DESCRIPTION:Automatisch importiert aus Dienstplan – keine Gewähr.",
		"DTSTART;VALUE=DATE:20240312",
		"DTEND;VALUE=DATE:20240313",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	assert.Equal(t, want, lines)
}

func TestWriteICSTimezoneAndEscaping(t *testing.T) {
	var buf bytes.Buffer
	entries := []model.Entry{{Date: "2024-03-05", Start: "07:35", End: "15:50", Code: "F;1,2"}}
	require.NoError(t, export.WriteICS(&buf, entries, export.Options{Timezone: "Europe/Vienna"}))

	out := buf.String()
	assert.Contains(t, out, `SUMMARY:F\;1\,2`+"\r\n")
	assert.Contains(t, out, "DTSTART;TZID=Europe/Vienna:20240305T073500\r\n")
}

func TestWriteICSFoldsLongLines(t *testing.T) {
	var buf bytes.Buffer
	code := strings.Repeat("ä", 60)
	entries := []model.Entry{{Date: "2024-03-05", AllDay: true, Code: code}}
	require.NoError(t, export.WriteICS(&buf, entries, export.Options{}))

	for _, l := range strings.Split(buf.String(), "\r\n") {
		assert.LessOrEqual(t, len(l), 75, l)
	}
	unfolded := strings.ReplaceAll(buf.String(), "\r\n ", "")
	assert.Contains(t, unfolded, "SUMMARY:"+code+"\r\n")
}

func TestEventUIDIsStable(t *testing.T) {
	assert.Equal(t, export.EventUID(sample[0], 0), export.EventUID(sample[0], 0))
	assert.NotEqual(t, export.EventUID(sample[0], 0), export.EventUID(sample[0], 1))
	assert.True(t, strings.HasSuffix(export.EventUID(sample[0], 0), "@shiftplan"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, export.JSON, sample[:1], export.Options{}))

	var got []model.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample[:1], got)

	buf.Reset()
	require.NoError(t, export.WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, export.XLSX, sample, export.Options{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SheetName}, f.GetSheetList())
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Datum", "Code", "Start", "Ende", "Geprüft"}, rows[0])
	assert.Equal(t, []string{"2024-03-05", "F", "07:35", "15:50", "ja"}, rows[1])
	assert.Equal(t, []string{"2024-03-16", "⚠ 07:40-15:55", "07:40", "15:55", "nein"}, rows[4])
}
