package format

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// readJSON parses a file holding an array of flat objects. Field names
// become columns in first-seen order; all values are stringified. The
// token-level walk exists to keep each object's key order, which a plain
// map decode would lose.
func readJSON(path string) (*RowSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("%w: top-level value is not an array", ErrDecodeFailure)
	}

	var columns []string
	seen := make(map[string]bool)
	var objects []map[string]string

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, fmt.Errorf("%w: array element is not an object", ErrDecodeFailure)
		}

		obj := make(map[string]string)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("%w: object key is not a string", ErrDecodeFailure)
			}

			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
			}

			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
			obj[key] = stringifyJSON(value)
		}
		if _, err := dec.Token(); err != nil { // closing brace
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
		}
		objects = append(objects, obj)
	}

	if len(objects) == 0 {
		return nil, ErrEmptyFile
	}

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = obj[col] // "" for objects missing the field
		}
		rows[i] = row
	}

	return &RowSet{Columns: columns, Rows: rows}, nil
}

// stringifyJSON renders a decoded JSON value as a cell. Numbers keep their
// source representation via json.Number; null becomes the empty string.
func stringifyJSON(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		// Nested arrays/objects arrive occasionally; keep them as compact JSON.
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
