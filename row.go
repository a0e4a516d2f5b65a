package rowmap

import (
	"fmt"
	"strings"
)

// Row is a single record positioned in a result
type Row interface {
	// Columns returns the column names, in result order
	Columns() []string
	// Column returns the value of the named column
	//
	// column names are matched case-insensitively
	Column(name string) (Value, bool)
	// ColumnAt returns the value of the column at the given index
	ColumnAt(index int) (Value, bool)
}

// Cursor iterates over the rows of a result
//
// the cursor itself is the current Row once Next has returned true
type Cursor interface {
	Row
	// Next advances to the next row, returning false when there are no more rows (or an error occurred)
	Next() bool
	// Err returns any error encountered during iteration
	Err() error
}

type columnIndex struct {
	names []string
	index map[string]int
}

func newColumnIndex(names []string) *columnIndex {
	ci := &columnIndex{
		names: names,
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		key := strings.ToLower(name)
		if _, dup := ci.index[key]; !dup {
			ci.index[key] = i
		}
	}
	return ci
}

func (ci *columnIndex) lookup(name string) (int, bool) {
	i, ok := ci.index[strings.ToLower(name)]
	return i, ok
}

type valuesRow struct {
	cols   *columnIndex
	values []Value
}

var _ Row = (*valuesRow)(nil)

// NewRow creates an in-memory Row from column names and driver values
func NewRow(columns []string, values []any) (Row, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("row has %d columns but %d values", len(columns), len(values))
	}
	r := &valuesRow{
		cols:   newColumnIndex(columns),
		values: make([]Value, len(values)),
	}
	for i, v := range values {
		cv, err := ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", columns[i], err)
		}
		r.values[i] = cv
	}
	return r, nil
}

// MustNewRow is the same as NewRow, except it panics on error
func MustNewRow(columns []string, values []any) Row {
	r, err := NewRow(columns, values)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *valuesRow) Columns() []string {
	return r.cols.names
}

func (r *valuesRow) Column(name string) (Value, bool) {
	if i, ok := r.cols.lookup(name); ok {
		return r.values[i], true
	}
	return Null(), false
}

func (r *valuesRow) ColumnAt(index int) (Value, bool) {
	if index < 0 || index >= len(r.values) {
		return Null(), false
	}
	return r.values[index], true
}

// singleColumnRow presents one value of a wider row to a value mapper
type singleColumnRow struct {
	name  string
	value Value
}

var _ Row = singleColumnRow{}

func (r singleColumnRow) Columns() []string {
	return []string{r.name}
}

func (r singleColumnRow) Column(name string) (Value, bool) {
	if strings.EqualFold(name, r.name) {
		return r.value, true
	}
	return Null(), false
}

func (r singleColumnRow) ColumnAt(index int) (Value, bool) {
	if index == 0 {
		return r.value, true
	}
	return Null(), false
}

type sliceCursor struct {
	rows []Row
	pos  int
}

var _ Cursor = (*sliceCursor)(nil)

// NewSliceCursor creates a Cursor over already materialized rows
func NewSliceCursor(rows ...Row) Cursor {
	return &sliceCursor{rows: rows, pos: -1}
}

func (c *sliceCursor) Next() bool {
	if c.pos+1 >= len(c.rows) {
		c.pos = len(c.rows)
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Err() error {
	return nil
}

func (c *sliceCursor) current() Row {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil
	}
	return c.rows[c.pos]
}

func (c *sliceCursor) Columns() []string {
	if r := c.current(); r != nil {
		return r.Columns()
	}
	return nil
}

func (c *sliceCursor) Column(name string) (Value, bool) {
	if r := c.current(); r != nil {
		return r.Column(name)
	}
	return Null(), false
}

func (c *sliceCursor) ColumnAt(index int) (Value, bool) {
	if r := c.current(); r != nil {
		return r.ColumnAt(index)
	}
	return Null(), false
}
