package series

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Options controls how a price series is read from CSV.
type Options struct {
	// Column selects the price column: a header name (case-insensitive) or
	// a 0-based index as a numeric string. Empty means "close", falling
	// back to the first column when the file has no header.
	Column string
	// Delimiter is the field separator; zero means comma.
	Delimiter rune
}

// Load reads a price series from a CSV file. A header row is detected by
// the selected column's first value not parsing as a number. Non-finite
// values are rejected with the offending row in the error.
func Load(path string, opts Options) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening series file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reading %s: file is empty", path)
	}

	col, first := resolveColumn(records, opts.Column)
	if col < 0 {
		return nil, fmt.Errorf("reading %s: column %q not found", path, opts.Column)
	}

	prices := make([]float64, 0, len(records)-first)
	for row := first; row < len(records); row++ {
		fields := records[row]
		if len(fields) == 0 || (len(fields) == 1 && strings.TrimSpace(fields[0]) == "") {
			continue // blank line
		}
		if col >= len(fields) {
			return nil, fmt.Errorf("reading %s: row %d has %d fields, need column %d", path, row+1, len(fields), col)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("reading %s: row %d: %w", path, row+1, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("reading %s: row %d: non-finite price %v", path, row+1, v)
		}
		prices = append(prices, v)
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("reading %s: no price values", path)
	}
	return prices, nil
}

// resolveColumn picks the price column and the first data row. Returns
// (-1, 0) when a named column cannot be found.
func resolveColumn(records [][]string, column string) (col, firstRow int) {
	if column == "" {
		column = "close"
	}

	header := records[0]
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), column) {
			return i, 1
		}
	}

	// Explicit numeric index: data starts at row 0 unless the first row is
	// a header.
	if idx, err := strconv.Atoi(column); err == nil && idx >= 0 {
		if idx < len(header) {
			if _, err := strconv.ParseFloat(strings.TrimSpace(header[idx]), 64); err != nil {
				return idx, 1
			}
			return idx, 0
		}
		return -1, 0
	}

	// Headerless single-column fallback: accept any file whose first field
	// is numeric.
	if _, err := strconv.ParseFloat(strings.TrimSpace(header[0]), 64); err == nil {
		return 0, 0
	}
	return -1, 0
}
