package format

import (
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// maxXLSRows caps how many rows are pulled from a legacy workbook.
const maxXLSRows = 1 << 20

// readXLSX reads the first sheet of an .xlsx workbook, all cells as text.
func readXLSX(path string) (*RowSet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return sheetRowSet(records)
}

// readXLS reads the first sheet of a legacy .xls workbook.
func readXLS(path string) (*RowSet, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return sheetRowSet(wb.ReadAllCells(maxXLSRows))
}

// sheetRowSet converts raw sheet rows to a RowSet. Spreadsheet readers trim
// trailing blank cells, so rows are padded back to the header width; blanks
// stay empty strings, never a null sentinel. Rows that are blank end to end
// (a formatting artifact past the data) are dropped.
func sheetRowSet(records [][]string) (*RowSet, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	columns := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isEmptyRow(rec) {
			continue
		}
		if len(rec) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, rec)
			rec = padded
		}
		rows = append(rows, rec)
	}
	return &RowSet{Columns: columns, Rows: rows}, nil
}
