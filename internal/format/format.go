// Package format reads partner extract files into a uniform tabular shape.
//
// Every supported format produces a [RowSet]: ordered column names from the
// header row (or field names) plus string cells. Downstream code never needs
// to know which format a file arrived in.
//
// Partner files arrive with unpredictable encodings and separators, so
// delimited text goes through an ordered, greedy search over encoding and
// separator candidates rather than trusting any single guess.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// RowSet is the tabular content of one file: ordered column names and
// string cells. Column names are taken verbatim from the file; the pipeline
// never renames or deduplicates them.
type RowSet struct {
	Columns []string
	Rows    [][]string
}

// Cell returns the value of column i in row, or "" when the row is shorter
// than the header. Cells beyond the header width are ignored by callers;
// the header is the column contract.
func (rs *RowSet) Cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

var (
	// ErrUnsupportedFormat is returned for file extensions the reader does
	// not handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when a file decodes but yields no rows.
	ErrEmptyFile = errors.New("file contains no rows")

	// ErrDecodeFailure is returned when a file cannot be read or decoded at
	// all; it wraps the last underlying error.
	ErrDecodeFailure = errors.New("file could not be decoded")
)

// Read loads path into a RowSet, dispatching on the file extension.
//
// .xlsx and .xls are read as spreadsheets with all cells as text; .json is
// parsed as an array of flat objects with all values stringified; .csv and
// .txt go through the delimited-text search. Anything else is
// ErrUnsupportedFormat.
func Read(path string) (*RowSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	case ".xls":
		return readXLS(path)
	case ".json":
		return readJSON(path)
	case ".csv":
		return readDelimited(path, csvSeparators)
	case ".txt":
		return readDelimited(path, txtSeparators)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// isBlank reports whether a cell holds no usable content.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// isEmptyRow reports whether every cell in the row is blank.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if !isBlank(v) {
			return false
		}
	}
	return true
}
