package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Tiliavir/shiftplan/internal/model"
)

// SheetName is the worksheet holding the roster.
const SheetName = "Dienstplan"

var xlsxHeader = []interface{}{"Datum", "Code", "Start", "Ende", "Geprüft"}

// WriteXLSX writes a workbook with one row per entry. Unvalidated rows are
// highlighted.
func WriteXLSX(w io.Writer, entries []model.Entry) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	warnStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFF3CD"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetName, "A1", &xlsxHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", headerStyle); err != nil {
		return err
	}

	for i, e := range entries {
		row := i + 2
		checked := "ja"
		if !e.Validated {
			checked = "nein"
		}
		values := []interface{}{e.Date, e.Code, e.Start, e.End, checked}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(values), row)
		if err := f.SetSheetRow(SheetName, first, &values); err != nil {
			return err
		}
		if !e.Validated {
			if err := f.SetCellStyle(SheetName, first, last, warnStyle); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 18); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
