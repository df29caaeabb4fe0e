package attendance

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportHeader is the column order of every export format.
var ExportHeader = []string{
	"Registration ID", "Phone Number", "Name", "College Name", "Title", "Category", "Date", "Time", "Status",
}

func exportRow(r Record) []string {
	return []string{
		r.RegistrationID, r.PhoneNumber, r.Name, r.CollegeName, r.Title, r.Category,
		r.DateRecorded, r.TimeRecorded, string(r.Status),
	}
}

// csvSafe neutralises cells a spreadsheet would evaluate as a formula.
func csvSafe(row []string) []string {
	for i, v := range row {
		if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
			row[i] = "'" + v
		}
	}
	return row
}

// WriteCSV writes the header and one line per record. Cells starting with
// a formula trigger are prefixed with a single quote.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(csvSafe(exportRow(r))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the records as a single-sheet workbook.
func WriteXLSX(w io.Writer, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Attendance"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	for i, row := range append([][]string{ExportHeader}, rowsOf(records)...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

func rowsOf(records []Record) [][]string {
	out := make([][]string, 0, len(records))
	for _, r := range records {
		out = append(out, exportRow(r))
	}
	return out
}
