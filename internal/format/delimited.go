package format

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// textEncodings is the fixed preference order for decoding delimited text.
// CP1252 and Latin-1 alias encodings tried earlier; the list mirrors what
// partners actually send and is kept in its historical order.
var textEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"iso-8859-1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
	{"cp1252", charmap.Windows1252},
	{"latin-1", charmap.ISO8859_1},
	{"utf-8", unicode.UTF8},
	{"utf-8-sig", unicode.UTF8BOM},
}

var (
	csvSeparators = []rune{',', ';', '\t', '|'}
	txtSeparators = []rune{'\t'}
)

// readDelimited searches (encoding, separator) pairs for the parse that
// looks correctly delimited.
//
// The first parse yielding more than one column wins immediately, even if a
// later pair in the loop order would have produced more columns. That
// early exit is long-standing behavior; callers depend on its cost profile
// and changing it would silently reroute ambiguous files.
//
// Falling through the whole search, the parse with the most columns wins.
// ErrEmptyFile means every pair decoded but none yielded rows;
// ErrDecodeFailure means nothing decoded and carries the last error.
func readDelimited(path string, seps []rune) (*RowSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	var best *RowSet
	var lastErr error
	decoded := false

	for _, cand := range textEncodings {
		text, err := cand.enc.NewDecoder().Bytes(raw)
		if err != nil {
			lastErr = fmt.Errorf("decode %s: %w", cand.name, err)
			continue
		}
		decoded = true

		for _, sep := range seps {
			records := parseDelimited(text, sep)
			if len(records) == 0 {
				continue
			}
			rs := &RowSet{Columns: records[0], Rows: records[1:]}
			if len(rs.Columns) > 1 {
				return rs, nil
			}
			best = bestByColumnCount(best, rs)
		}
	}

	if best != nil {
		return best, nil
	}
	if !decoded {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, lastErr)
	}
	return nil, ErrEmptyFile
}

// bestByColumnCount keeps the parse with the most columns. Ties keep the
// earlier candidate, so the encoding/separator preference order is the
// tie-break.
func bestByColumnCount(current, candidate *RowSet) *RowSet {
	if current == nil || len(candidate.Columns) > len(current.Columns) {
		return candidate
	}
	return current
}

// parseDelimited parses text permissively: ragged rows are allowed, quoting
// is lazy, and malformed lines are skipped rather than aborting the file.
// Undecodable sequences were already replaced during decoding.
func parseDelimited(text []byte, sep rune) [][]string {
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed line
		}
		records = append(records, rec)
	}
	return records
}
