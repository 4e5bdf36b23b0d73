package dataset

import (
	"fmt"
	"slices"
)

// Row maps column names to cells.
type Row map[string]Value

// Frame is an immutable table of named, equal-length columns. Operations
// return new frames; column slices of untouched columns are shared and
// never written to.
type Frame struct {
	names []string
	index map[string]int
	cols  [][]Value
	rows  int
}

// NewFrame builds a frame from parallel names and columns.
func NewFrame(names []string, cols [][]Value) (*Frame, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("got %d names for %d columns", len(names), len(cols))
	}
	f := &Frame{
		names: slices.Clone(names),
		index: make(map[string]int, len(names)),
		cols:  make([][]Value, len(cols)),
	}
	for i, name := range names {
		if _, dup := f.index[name]; dup {
			return nil, &SchemaError{Column: name, Reason: "duplicate column"}
		}
		if i > 0 && len(cols[i]) != len(cols[0]) {
			return nil, &SchemaError{Column: name, Reason: fmt.Sprintf("has %d rows, expected %d", len(cols[i]), len(cols[0]))}
		}
		f.index[name] = i
		f.cols[i] = cols[i]
	}
	if len(cols) > 0 {
		f.rows = len(cols[0])
	}
	return f, nil
}

// FromRows builds a frame whose columns are exactly names. A row missing
// one of the names, or carrying any other key, is a schema error.
func FromRows(rows []Row, names []string) (*Frame, error) {
	cols := make([][]Value, len(names))
	for j := range cols {
		cols[j] = make([]Value, len(rows))
	}
	for i, row := range rows {
		for j, name := range names {
			v, ok := row[name]
			if !ok {
				return nil, &SchemaError{Column: name, Reason: fmt.Sprintf("missing from row %d", i)}
			}
			cols[j][i] = v
		}
		if len(row) != len(names) {
			for key := range row {
				if !slices.Contains(names, key) {
					return nil, &SchemaError{Column: key, Reason: fmt.Sprintf("unexpected field in row %d", i)}
				}
			}
		}
	}
	return NewFrame(names, cols)
}

// Len is the number of rows.
func (f *Frame) Len() int { return f.rows }

// Columns returns the column names in order.
func (f *Frame) Columns() []string { return slices.Clone(f.names) }

// Has reports whether the column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]Value, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, &SchemaError{Column: name, Reason: "not present"}
	}
	return slices.Clone(f.cols[i]), nil
}

// Numbers returns the named column as floats. Missing cells and text are
// schema errors.
func (f *Frame) Numbers(name string) ([]float64, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, &SchemaError{Column: name, Reason: "not present"}
	}
	out := make([]float64, f.rows)
	for r, v := range f.cols[i] {
		if v.Kind != KindNumber {
			return nil, &SchemaError{Column: name, Reason: fmt.Sprintf("row %d is %s, expected number", r, v.Kind)}
		}
		out[r] = v.Num
	}
	return out, nil
}

// Row returns row i as a map.
func (f *Frame) Row(i int) Row {
	row := make(Row, len(f.names))
	for j, name := range f.names {
		row[name] = f.cols[j][i]
	}
	return row
}

// WithColumn returns a frame with the column replaced, or appended when new.
func (f *Frame) WithColumn(name string, values []Value) (*Frame, error) {
	if len(f.names) > 0 && len(values) != f.rows {
		return nil, &SchemaError{Column: name, Reason: fmt.Sprintf("has %d rows, expected %d", len(values), f.rows)}
	}
	names := slices.Clone(f.names)
	cols := slices.Clone(f.cols)
	if i, ok := f.index[name]; ok {
		cols[i] = values
	} else {
		names = append(names, name)
		cols = append(cols, values)
	}
	return NewFrame(names, cols)
}

// Drop returns a frame without the named columns. Every name must exist.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	for _, name := range names {
		if !f.Has(name) {
			return nil, &SchemaError{Column: name, Reason: "cannot drop, not present"}
		}
	}
	keep := make([]string, 0, len(f.names))
	for _, name := range f.names {
		if !slices.Contains(names, name) {
			keep = append(keep, name)
		}
	}
	return f.Select(keep)
}

// Select returns the named columns in the given order.
func (f *Frame) Select(names []string) (*Frame, error) {
	cols := make([][]Value, len(names))
	for j, name := range names {
		i, ok := f.index[name]
		if !ok {
			return nil, &SchemaError{Column: name, Reason: "not present"}
		}
		cols[j] = f.cols[i]
	}
	out, err := NewFrame(names, cols)
	if err != nil {
		return nil, err
	}
	out.rows = f.rows
	return out, nil
}

// Take returns the rows at the given positions, in that order.
func (f *Frame) Take(idx []int) *Frame {
	cols := make([][]Value, len(f.cols))
	for j, col := range f.cols {
		c := make([]Value, len(idx))
		for k, i := range idx {
			c[k] = col[i]
		}
		cols[j] = c
	}
	out, _ := NewFrame(f.names, cols)
	out.rows = len(idx)
	return out
}

// Matrix returns the frame as row-major floats. Every cell must be a number.
func (f *Frame) Matrix() ([][]float64, error) {
	X := make([][]float64, f.rows)
	for i := range X {
		X[i] = make([]float64, len(f.names))
	}
	for j, name := range f.names {
		for i, v := range f.cols[j] {
			if v.Kind != KindNumber {
				return nil, &SchemaError{Column: name, Reason: fmt.Sprintf("row %d is %s, expected number", i, v.Kind)}
			}
			X[i][j] = v.Num
		}
	}
	return X, nil
}
