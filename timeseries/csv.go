package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ParseError reports a field that could not be parsed while reading a CSV source.
type ParseError struct {
	Source string // File name or label of the source
	Line   int    // 1-based line number, header is line 1
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: column %q: cannot parse %q: %v", e.Source, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	Source       string   // Label used in errors (defaults to the file name)
	KeyColumn    string   // Column holding the row key, usually the date (default: "Date")
	ValueColumns []string // Numeric columns to read
	Delimiter    rune     // Field delimiter (default: ',')
	SkipRows     int      // Number of rows to skip before the header
	MissingTags  []string // Field values treated as missing
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		KeyColumn:   "Date",
		Delimiter:   ',',
		MissingTags: []string{"", "NA", "N/A", "NaN", "nan", "null", "."},
	}
}

// Frame is a keyed, column-oriented table of numeric observations as read from
// one CSV source. Missing values are NaN.
type Frame struct {
	Keys    []string
	Columns map[string][]float64
	Lines   []int // source line of each row, header is line 1
	index   map[string]int
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Keys)
}

// Column returns the values of a column, or nil if the frame has no such column.
func (f *Frame) Column(name string) []float64 {
	return f.Columns[name]
}

// Lookup returns the value of column at key and whether the key exists.
func (f *Frame) Lookup(key, column string) (float64, bool) {
	i, ok := f.index[key]
	if !ok {
		return math.NaN(), false
	}
	return f.Columns[column][i], true
}

// LoadFrame reads a Frame from a CSV file.
func LoadFrame(filename string, opts *CSVOptions) (*Frame, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if opts == nil {
		opts = DefaultCSVOptions()
	}
	if opts.Source == "" {
		o := *opts
		o.Source = filename
		opts = &o
	}

	return ReadFrame(file, opts)
}

// ReadFrame reads a Frame from an io.Reader. Missing tags become NaN; any other
// value that is not a number fails the read with a *ParseError. Rows whose key
// was already seen are skipped.
func ReadFrame(r io.Reader, opts *CSVOptions) (*Frame, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	if len(opts.ValueColumns) == 0 {
		return nil, errors.New("no value columns requested")
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	if reader.Comma == 0 {
		reader.Comma = ','
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("%s: skip row %d: %w", opts.Source, i+1, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", opts.Source, err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.TrimSpace(strings.Trim(h, "\"\ufeff"))] = i
	}

	keyIdx, ok := columns[opts.KeyColumn]
	if !ok {
		return nil, fmt.Errorf("%s: missing key column %q", opts.Source, opts.KeyColumn)
	}
	valueIdx := make([]int, len(opts.ValueColumns))
	for i, name := range opts.ValueColumns {
		idx, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%s: missing column %q", opts.Source, name)
		}
		valueIdx[i] = idx
	}

	missing := make(map[string]bool, len(opts.MissingTags))
	for _, tag := range opts.MissingTags {
		missing[tag] = true
	}

	frame := &Frame{
		Columns: make(map[string][]float64, len(opts.ValueColumns)),
		index:   make(map[string]int),
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.Source, err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		key := field(record, keyIdx)
		if key == "" {
			return nil, &ParseError{Source: opts.Source, Line: line, Column: opts.KeyColumn, Value: key, Err: errors.New("empty key")}
		}
		if _, seen := frame.index[key]; seen {
			continue
		}

		row := make([]float64, len(valueIdx))
		for i, idx := range valueIdx {
			raw := field(record, idx)
			if missing[raw] {
				row[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
			if err != nil {
				return nil, &ParseError{Source: opts.Source, Line: line, Column: opts.ValueColumns[i], Value: raw, Err: err}
			}
			row[i] = v
		}

		frame.index[key] = len(frame.Keys)
		frame.Keys = append(frame.Keys, key)
		frame.Lines = append(frame.Lines, line)
		for i, name := range opts.ValueColumns {
			frame.Columns[name] = append(frame.Columns[name], row[i])
		}
	}

	return frame, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(record[idx], "\""))
}
