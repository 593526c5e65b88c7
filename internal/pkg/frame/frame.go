// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package frame provides a small column-oriented table for broker exports.
//
// A Frame holds named columns of cells. A column is either text or numeric;
// any cell may be null. Every operation returns a new Frame and never
// modifies the cells of its input.
package frame

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the type of the cells of a column.
type Kind int

const (
	// KindText is a column of strings.
	KindText Kind = iota + 1
	// KindNumber is a column of decimals.
	KindNumber
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Cell is a single value. Only one of Text or Number is meaningful,
// depending on the Kind of the column holding the cell.
type Cell struct {
	// Valid is false for null cells.
	Valid bool
	// Text is the value of a text cell.
	Text string
	// Number is the value of a numeric cell.
	Number decimal.Decimal
}

// NullCell returns a null cell.
func NullCell() Cell {
	return Cell{}
}

// TextCell returns a valid text cell.
func TextCell(text string) Cell {
	return Cell{Valid: true, Text: text}
}

// NumberCell returns a valid numeric cell.
func NumberCell(number decimal.Decimal) Cell {
	return Cell{Valid: true, Number: number}
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// NewTextColumn returns a text column with the given cells.
func NewTextColumn(name string, cells ...Cell) *Column {
	return &Column{Name: name, Kind: KindText, Cells: cells}
}

// NewNumberColumn returns a numeric column with the given cells.
func NewNumberColumn(name string, cells ...Cell) *Column {
	return &Column{Name: name, Kind: KindNumber, Cells: cells}
}

// Format returns the display form of the cell at index i.
// Null cells are rendered as the empty string.
func (c *Column) Format(i int) string {
	cell := c.Cells[i]
	if !cell.Valid {
		return ""
	}
	if c.Kind == KindNumber {
		return cell.Number.String()
	}
	return cell.Text
}

// NonNull returns the non-null cells of the column, in order, up to limit.
// A limit < 0 returns all of them.
func (c *Column) NonNull(limit int) []Cell {
	var cells []Cell
	for _, cell := range c.Cells {
		if limit >= 0 && len(cells) >= limit {
			break
		}
		if cell.Valid {
			cells = append(cells, cell)
		}
	}
	return cells
}

// MissingColumnsError is returned when an operation references columns that
// a Frame does not have.
type MissingColumnsError struct {
	// Columns are the missing column names, sorted.
	Columns []string
}

// Error implements error.
func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Columns, ", "))
}

// Frame is an immutable table of equally long columns.
type Frame struct {
	columns []*Column
	index   map[string]int
	numRows int
}

// New returns a new Frame for the columns.
//
// All columns must have the same number of cells and unique names.
func New(columns ...*Column) (*Frame, error) {
	frame := &Frame{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, column := range columns {
		if column == nil {
			return nil, errors.New("nil column")
		}
		if _, ok := frame.index[column.Name]; ok {
			return nil, fmt.Errorf("duplicate column %q", column.Name)
		}
		if i == 0 {
			frame.numRows = len(column.Cells)
		} else if len(column.Cells) != frame.numRows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", column.Name, len(column.Cells), frame.numRows)
		}
		frame.index[column.Name] = len(frame.columns)
		frame.columns = append(frame.columns, column)
	}
	return frame, nil
}

// Empty returns a Frame with no columns and no rows.
func Empty() *Frame {
	return &Frame{index: map[string]int{}}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.numRows
}

// IsEmpty returns true if the Frame has no rows.
func (f *Frame) IsEmpty() bool {
	return f.numRows == 0
}

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, column := range f.columns {
		names[i] = column.Name
	}
	return names
}

// Columns returns the columns in order.
//
// Callers must not modify the returned columns.
func (f *Frame) Columns() []*Column {
	return f.columns
}

// Column returns the column with the given name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.columns[i], true
}

// Missing returns the names that are not columns of the Frame, sorted.
func (f *Frame) Missing(names ...string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := f.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Select returns a Frame with only the named columns, in the given order.
//
// Returns a *MissingColumnsError if any name is not a column.
func (f *Frame) Select(names ...string) (*Frame, error) {
	if missing := f.Missing(names...); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	columns := make([]*Column, len(names))
	for i, name := range names {
		columns[i] = f.columns[f.index[name]]
	}
	return newUnchecked(columns, f.numRows), nil
}

// Rename returns a Frame with columns renamed according to mapping.
// Columns not in mapping keep their name.
func (f *Frame) Rename(mapping map[string]string) (*Frame, error) {
	columns := make([]*Column, len(f.columns))
	for i, column := range f.columns {
		name := column.Name
		if newName, ok := mapping[name]; ok {
			name = newName
		}
		columns[i] = &Column{Name: name, Kind: column.Kind, Cells: column.Cells}
	}
	return New(columns...)
}

// WithColumn returns a Frame with the column added, replacing any column
// of the same name in place.
func (f *Frame) WithColumn(column *Column) (*Frame, error) {
	if len(f.columns) > 0 && len(column.Cells) != f.numRows {
		return nil, fmt.Errorf("column %q has %d rows, expected %d", column.Name, len(column.Cells), f.numRows)
	}
	columns := make([]*Column, len(f.columns), len(f.columns)+1)
	copy(columns, f.columns)
	if i, ok := f.index[column.Name]; ok {
		columns[i] = column
	} else {
		columns = append(columns, column)
	}
	return New(columns...)
}

// Without returns a Frame without the named columns. Unknown names are ignored.
func (f *Frame) Without(names ...string) *Frame {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[name] = struct{}{}
	}
	var columns []*Column
	for _, column := range f.columns {
		if _, ok := drop[column.Name]; !ok {
			columns = append(columns, column)
		}
	}
	return newUnchecked(columns, f.numRows)
}

// Filter returns a Frame with only the rows for which keep returns true.
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	var indexes []int
	for i := range f.numRows {
		if keep(Row{frame: f, index: i}) {
			indexes = append(indexes, i)
		}
	}
	columns := make([]*Column, len(f.columns))
	for i, column := range f.columns {
		cells := make([]Cell, len(indexes))
		for j, index := range indexes {
			cells[j] = column.Cells[index]
		}
		columns[i] = &Column{Name: column.Name, Kind: column.Kind, Cells: cells}
	}
	return newUnchecked(columns, len(indexes))
}

// Rows returns all rows in order.
func (f *Frame) Rows() []Row {
	rows := make([]Row, f.numRows)
	for i := range f.numRows {
		rows[i] = Row{frame: f, index: i}
	}
	return rows
}

// Row is a view of a single row of a Frame.
type Row struct {
	frame *Frame
	index int
}

// Index returns the zero-based position of the row in its Frame.
func (r Row) Index() int {
	return r.index
}

// Get returns the cell of the named column. Unknown columns return a null cell.
func (r Row) Get(name string) Cell {
	column, ok := r.frame.Column(name)
	if !ok {
		return NullCell()
	}
	return column.Cells[r.index]
}

// *** PRIVATE ***

func newUnchecked(columns []*Column, numRows int) *Frame {
	index := make(map[string]int, len(columns))
	for i, column := range columns {
		index[column.Name] = i
	}
	return &Frame{
		columns: columns,
		index:   index,
		numRows: numRows,
	}
}
