// Package ingest parses provider CSV exports into normalized listings.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericPattern accepts plain decimal numbers with an optional exponent.
// Anything else (hex, NaN, thousands separators) stays text.
var numericPattern = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// Table is a parsed CSV resource.
type Table struct {
	Header  []string
	Rows    []Row
	Skipped int // malformed records that could not be read
}

// Row is one record addressed by header name.
type Row struct {
	Line   int
	index  map[string]int
	values []string
}

// ParseRows reads a header-driven CSV. Blank lines are skipped, a UTF-8
// byte-order mark on the header is removed and malformed records are counted
// in Skipped instead of failing the whole resource.
func ParseRows(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		header[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	table := &Table{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			table.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, Row{Line: line, index: index, values: record})
	}
	return table, nil
}

func isBlank(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}

// Has reports whether the column exists and is non-empty in this row.
func (r Row) Has(col string) bool {
	return r.Text(col) != ""
}

// Text returns the trimmed cell value or "" when the column is absent.
func (r Row) Text(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// Number returns the cell as a finite float, or nil when it is empty or not numeric.
func (r Row) Number(col string) *float64 {
	raw := r.Text(col)
	if raw == "" || !numericPattern.MatchString(raw) {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Bool parses true/false cells (case-insensitive) and the 0/1 flags some exports use.
func (r Row) Bool(col string) *bool {
	var v bool
	switch strings.ToLower(r.Text(col)) {
	case "true", "1":
		v = true
	case "false", "0":
		v = false
	default:
		return nil
	}
	return &v
}

// Coordinates returns the row's lat/lng when both columns are numeric.
func (r Row) Coordinates(latCol, lngCol string) (lat, lng float64, ok bool) {
	latP := r.Number(latCol)
	lngP := r.Number(lngCol)
	if latP == nil || lngP == nil {
		return 0, 0, false
	}
	return *latP, *lngP, true
}
