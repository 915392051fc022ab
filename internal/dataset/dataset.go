// Package dataset reads evaluation points from CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrEmpty is returned for input with no data rows.
var ErrEmpty = errors.New("dataset: no rows")

// CellError reports a cell that is not a number. Row is the 1-based input
// line and Col the 1-based field.
type CellError struct {
	Row, Col int
	Text     string
	Err      error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("dataset: row %d, column %d: cannot parse %q: %v", e.Row, e.Col, e.Text, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// Config controls parsing.
type Config struct {
	Header bool // First line names the columns.
	Comma  rune // Field delimiter, ',' if zero.
}

// Table is a rectangular block of points.
type Table struct {
	Header []string
	Rows   [][]float64
}

// Width returns the number of columns.
func (t *Table) Width() int {
	if len(t.Header) > 0 {
		return len(t.Header)
	}
	if len(t.Rows) > 0 {
		return len(t.Rows[0])
	}
	return 0
}

// Read parses r. Every row must have the same number of fields.
// Blank lines and lines starting with '#' are skipped.
func Read(r io.Reader, cfg Config) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	if cfg.Comma != 0 {
		cr.Comma = cfg.Comma
	}

	t := &Table{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: %w", err)
		}

		if cfg.Header && t.Header == nil {
			t.Header = make([]string, len(record))
			for i, name := range record {
				t.Header[i] = strings.TrimSpace(name)
			}
			continue
		}

		row := make([]float64, len(record))
		for i, cell := range record {
			text := strings.TrimSpace(cell)
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				line, _ := cr.FieldPos(i)
				return nil, &CellError{Row: line, Col: i + 1, Text: text, Err: err}
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return nil, ErrEmpty
	}
	return t, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string, cfg Config) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()

	t, err := Read(f, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParsePoint parses a single comma-separated point such as "1,2.5,-3".
func ParsePoint(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []float64{}, nil
	}
	fields := strings.Split(s, ",")
	point := make([]float64, len(fields))
	for i, f := range fields {
		text := strings.TrimSpace(f)
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &CellError{Row: 1, Col: i + 1, Text: text, Err: err}
		}
		point[i] = v
	}
	return point, nil
}
