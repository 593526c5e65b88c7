// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package numeric detects and converts string-encoded decimal columns.
//
// Broker exports write numbers as text with either a dot or a comma as the
// decimal separator ("1234.56", "1234,56"). Normalize sniffs a small sample
// of each text column and converts the columns that look numeric.
//
// Detection is a heuristic: only the first SampleSize non-null cells of a
// column are inspected. A numeric column whose sampled cells are all
// non-numeric stays text.
package numeric

import (
	"strings"

	"github.com/bufdev/m720ctl/internal/pkg/frame"
	"github.com/shopspring/decimal"
)

// SampleSize is the number of non-null cells inspected per column.
const SampleSize = 10

// Normalize returns a Frame where every text column whose sample contains at
// least one decimal number is converted to a numeric column.
//
// Numeric columns, empty columns, and all-null columns are left untouched.
// If any non-null cell of a detected column fails to parse, that column is
// left as text and the other columns are still converted.
func Normalize(input *frame.Frame) *frame.Frame {
	output := input
	for _, column := range input.Columns() {
		if column.Kind == frame.KindNumber {
			continue
		}
		sample := column.NonNull(SampleSize)
		if len(sample) == 0 {
			continue
		}
		if !anyDecimal(sample) {
			continue
		}
		converted, ok := toNumberColumn(column)
		if !ok {
			continue
		}
		next, err := output.WithColumn(converted)
		if err != nil {
			continue
		}
		output = next
	}
	return output
}

// ParseDecimal parses text as a decimal number, accepting a comma as the
// decimal separator. Surrounding spaces are ignored.
func ParseDecimal(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Decimal{}, false
	}
	value, err := decimal.NewFromString(strings.Replace(text, ",", ".", 1))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return value, true
}

// *** PRIVATE ***

func anyDecimal(cells []frame.Cell) bool {
	for _, cell := range cells {
		if _, ok := ParseDecimal(cell.Text); ok {
			return true
		}
	}
	return false
}

// toNumberColumn casts every non-null cell of the column. Returns false if a
// cell does not parse.
func toNumberColumn(column *frame.Column) (*frame.Column, bool) {
	cells := make([]frame.Cell, len(column.Cells))
	for i, cell := range column.Cells {
		if !cell.Valid {
			cells[i] = frame.NullCell()
			continue
		}
		value, ok := ParseDecimal(cell.Text)
		if !ok {
			return nil, false
		}
		cells[i] = frame.NumberCell(value)
	}
	return frame.NewNumberColumn(column.Name, cells...), true
}
