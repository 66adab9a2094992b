package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/Tiliavir/shiftplan/internal/model"
)

// csvRow fixes the column order date,code,start,end.
type csvRow struct {
	Date  string `csv:"date"`
	Code  string `csv:"code"`
	Start string `csv:"start"`
	End   string `csv:"end"`
}

// WriteCSV writes one row per entry. All-day entries leave start and end
// blank.
func WriteCSV(w io.Writer, entries []model.Entry) error {
	rows := make([]*csvRow, 0, len(entries))
	for _, e := range entries {
		row := &csvRow{Date: e.Date, Code: e.Code}
		if !e.AllDay {
			row.Start, row.End = e.Start, e.End
		}
		rows = append(rows, row)
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("encoding CSV: %w", err)
	}
	return nil
}
