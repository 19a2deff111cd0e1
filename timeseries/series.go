// Package timeseries defines the two-column date/value series exchanged
// between the extraction layers and the forecast engine, and the miner that
// recovers such a series from unstructured text.
package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Column names of the strict tabular form. Every series producer emits these
// and the forecast engine expects them.
const (
	DateColumn  = "ds"
	ValueColumn = "y"
)

// ErrNoSeries signals that no chronological numeric data was found. It is an
// expected outcome, distinct from a parsing fault.
var ErrNoSeries = errors.New("no time-series data found")

// Point is one observation: a date string (coerced to a real date by the
// forecast engine) and its numeric value.
type Point struct {
	DS string
	Y  float64
}

// Series is an ordered list of observations. Order is not guaranteed; the
// forecast engine must not assume it.
type Series []Point

var strictHeader = DateColumn + "," + ValueColumn

// ParseStrictTable parses the strict two-column tabular text form: a fixed
// "ds,y" header followed by one date,value row per line. Any deviation is
// treated as "no series found" rather than attempting partial recovery.
func ParseStrictTable(text string) (Series, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, strictHeader) || !strings.Contains(text, "\n") {
		return nil, ErrNoSeries
	}

	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		return nil, ErrNoSeries
	}
	if len(records) < 2 {
		return nil, ErrNoSeries
	}

	series := make(Series, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != 2 {
			return nil, ErrNoSeries
		}
		ds := strings.TrimSpace(record[0])
		value, parseErr := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if ds == "" || parseErr != nil {
			return nil, ErrNoSeries
		}
		series = append(series, Point{DS: ds, Y: value})
	}

	return series, nil
}

// FromColumns builds a series from parsed CSV records by locating the "ds"
// and "y" columns in the header row. Column names are matched after trimming,
// case-insensitively.
func FromColumns(records [][]string) (Series, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("table needs a header and at least one data row")
	}

	dsIdx, yIdx := -1, -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case DateColumn:
			dsIdx = i
		case ValueColumn:
			yIdx = i
		}
	}
	if dsIdx < 0 || yIdx < 0 {
		return nil, fmt.Errorf("table is missing %q or %q column", DateColumn, ValueColumn)
	}

	series := make(Series, 0, len(records)-1)
	for i, record := range records[1:] {
		if dsIdx >= len(record) || yIdx >= len(record) {
			return nil, fmt.Errorf("row %d has too few columns", i+1)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[yIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: parse value %q: %w", i+1, record[yIdx], err)
		}
		series = append(series, Point{DS: strings.TrimSpace(record[dsIdx]), Y: value})
	}

	return series, nil
}
