package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Required CSV columns. Header matching is case-insensitive and extra
// columns are ignored.
var requiredColumns = []string{"city", "timestamp", "temperature", "season"}

// SchemaError reports required columns missing from the CSV header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("csv header missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ParseError reports a cell that could not be parsed into its typed form.
type ParseError struct {
	Line   int    // 1-based line number in the input, header included
	Column string // column name the bad cell belongs to
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid %s value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Accepted timestamp layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Load parses CSV content into per-city series. The first row must be a
// header containing the city, timestamp, temperature and season columns.
// Each city's series is sorted by timestamp ascending so downstream
// rolling-window computation sees chronological order regardless of the
// input row order.
func Load(r io.Reader) (map[string]Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // column count validated via the header below
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &SchemaError{Missing: requiredColumns}
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	byCity := make(map[string]Series)
	line := 1 // header consumed

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		line++

		rec, perr := parseRow(row, idx, line)
		if perr != nil {
			return nil, perr
		}
		byCity[rec.City] = append(byCity[rec.City], rec)
	}

	for _, s := range byCity {
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].Timestamp.Before(s[j].Timestamp)
		})
	}

	return byCity, nil
}

func parseRow(row []string, idx map[string]int, line int) (Record, *ParseError) {
	cell := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	ts, err := parseTimestamp(cell("timestamp"))
	if err != nil {
		return Record{}, &ParseError{Line: line, Column: "timestamp", Value: cell("timestamp"), Err: err}
	}

	temp, err := strconv.ParseFloat(cell("temperature"), 64)
	if err != nil {
		return Record{}, &ParseError{Line: line, Column: "temperature", Value: cell("temperature"), Err: err}
	}
	if math.IsNaN(temp) || math.IsInf(temp, 0) {
		return Record{}, &ParseError{
			Line: line, Column: "temperature", Value: cell("temperature"),
			Err: fmt.Errorf("temperature must be finite"),
		}
	}

	return Record{
		City:        cell("city"),
		Timestamp:   ts,
		Temperature: temp,
		Season:      cell("season"),
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}
