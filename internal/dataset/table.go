// Package dataset holds a parsed tabular object in memory for the length of a
// single run. Cells stay as the raw text they were read as; types are only
// decided when the table is encoded.
package dataset

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrMalformed      = errors.New("malformed tabular data")
	ErrColumnNotFound = errors.New("column not found")
	ErrMissingValue   = errors.New("missing value")
)

type Kind int

const (
	// KindInfer lets the encoder pick INT64, DOUBLE or STRING from the values.
	KindInfer Kind = iota
	KindDouble
)

type Column struct {
	Name string
	Kind Kind
}

// Row is one record, aligned with Table.Columns.
type Row []string

type Table struct {
	columns []Column
	rows    []Row
}

func New(columns []string, rows []Row) (*Table, error) {
	t := &Table{}
	for _, name := range columns {
		if t.Index(name) >= 0 {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformed, name)
		}
		t.columns = append(t.columns, Column{Name: name, Kind: KindInfer})
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d fields, expected %d", ErrMalformed, i, len(row), len(columns))
		}
		t.rows = append(t.rows, slices.Clone(row))
	}
	return t, nil
}

func (t *Table) Columns() []Column {
	return slices.Clone(t.columns)
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) Rows() []Row {
	return t.rows
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	return slices.IndexFunc(t.columns, func(c Column) bool { return c.Name == name })
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[idx]
	}
	return values, nil
}

func (t *Table) DropColumn(name string) error {
	idx := t.Index(name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	t.columns = slices.Delete(t.columns, idx, idx+1)
	for i, row := range t.rows {
		t.rows[i] = slices.Delete(row, idx, idx+1)
	}
	return nil
}

// DropMissing removes every row with at least one missing field and returns
// how many rows were removed.
func (t *Table) DropMissing() int {
	before := len(t.rows)
	t.rows = slices.DeleteFunc(t.rows, func(row Row) bool {
		return slices.ContainsFunc(row, IsMissing)
	})
	return before - len(t.rows)
}

// Float reads the named column of row as a number.
func (t *Table) Float(row Row, name string) (float64, error) {
	idx := t.Index(name)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	raw := row[idx]
	if IsMissing(raw) {
		return 0, fmt.Errorf("%w in column %q", ErrMissingValue, name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("column %q value %q is not numeric: %w", name, raw, err)
	}
	return v, nil
}

// Derive computes a DOUBLE column from each row. An existing column with the
// same name keeps its position and has its values replaced. Nothing is
// modified if fn fails for any row.
func (t *Table) Derive(name string, fn func(Row) (float64, error)) error {
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		v, err := fn(row)
		if err != nil {
			return fmt.Errorf("error deriving %q for row %d: %w", name, i, err)
		}
		values[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	if idx := t.Index(name); idx >= 0 {
		t.columns[idx].Kind = KindDouble
		for i := range t.rows {
			t.rows[i][idx] = values[i]
		}
		return nil
	}

	t.columns = append(t.columns, Column{Name: name, Kind: KindDouble})
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], values[i])
	}
	return nil
}
