// Copyright 2026 Peter Edge
//
// All rights reserved.

package numeric

import (
	"fmt"
	"testing"

	"github.com/bufdev/m720ctl/internal/pkg/frame"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		text string
		want string
		ok   bool
	}{
		{"1234.56", "1234.56", true},
		{"1234,56", "1234.56", true},
		{" -10 ", "-10", true},
		{"0,5", "0.5", true},
		{"", "", false},
		{"   ", "", false},
		{"NL0000000001", "", false},
		{"EUR 12,5", "", false},
	} {
		got, ok := ParseDecimal(test.text)
		require.Equal(t, test.ok, ok, test.text)
		if test.ok {
			require.True(t, decimal.RequireFromString(test.want).Equal(got), "%q: got %s", test.text, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	input, err := frame.New(
		frame.NewTextColumn("product", frame.TextCell("ACME NV"), frame.TextCell("GLOBEX")),
		frame.NewTextColumn("amount", frame.TextCell("10"), frame.NullCell()),
		frame.NewTextColumn("local_value", frame.TextCell("1234,56"), frame.TextCell("7.5")),
		frame.NewTextColumn("nulls", frame.NullCell(), frame.NullCell()),
	)
	require.NoError(t, err)

	output := Normalize(input)
	require.Equal(t, input.ColumnNames(), output.ColumnNames())

	product, _ := output.Column("product")
	require.Equal(t, frame.KindText, product.Kind)
	nulls, _ := output.Column("nulls")
	require.Equal(t, frame.KindText, nulls.Kind)

	amount, _ := output.Column("amount")
	require.Equal(t, frame.KindNumber, amount.Kind)
	require.True(t, decimal.NewFromInt(10).Equal(amount.Cells[0].Number))
	require.False(t, amount.Cells[1].Valid)

	localValue, _ := output.Column("local_value")
	require.Equal(t, frame.KindNumber, localValue.Kind)
	require.Equal(t, "1234.56", localValue.Format(0))
	require.Equal(t, "7.5", localValue.Format(1))

	// The input frame is not modified.
	inputAmount, _ := input.Column("amount")
	require.Equal(t, frame.KindText, inputAmount.Kind)
}

func TestNormalizeEmptyColumn(t *testing.T) {
	t.Parallel()
	input, err := frame.New(frame.NewTextColumn("empty"))
	require.NoError(t, err)
	output := Normalize(input)
	empty, _ := output.Column("empty")
	require.Equal(t, frame.KindText, empty.Kind)
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()
	input, err := frame.New(
		frame.NewTextColumn("amount", frame.TextCell("1,5"), frame.TextCell("2")),
		frame.NewTextColumn("isin", frame.TextCell("NL0000000001"), frame.TextCell("US0000000002")),
	)
	require.NoError(t, err)
	once := Normalize(input)
	twice := Normalize(once)
	require.Equal(t, once.ColumnNames(), twice.ColumnNames())
	for _, column := range once.Columns() {
		other, ok := twice.Column(column.Name)
		require.True(t, ok)
		require.Equal(t, column.Kind, other.Kind)
		for i := range column.Cells {
			require.Equal(t, column.Format(i), other.Format(i))
		}
	}
}

func TestNormalizeBadCellKeepsColumnText(t *testing.T) {
	t.Parallel()
	input, err := frame.New(
		frame.NewTextColumn("mixed", frame.TextCell("1,5"), frame.TextCell("n/a")),
		frame.NewTextColumn("amount", frame.TextCell("3"), frame.TextCell("4")),
	)
	require.NoError(t, err)
	output := Normalize(input)
	mixed, _ := output.Column("mixed")
	require.Equal(t, frame.KindText, mixed.Kind)
	require.Equal(t, "n/a", mixed.Format(1))
	amount, _ := output.Column("amount")
	require.Equal(t, frame.KindNumber, amount.Kind)
}

// Detection only looks at the first SampleSize non-null cells: a numeric
// value further down the column does not promote it.
func TestNormalizeSampleBoundary(t *testing.T) {
	t.Parallel()
	cells := make([]frame.Cell, 0, SampleSize+1)
	for i := range SampleSize {
		cells = append(cells, frame.TextCell(fmt.Sprintf("label-%d", i)))
	}
	cells = append(cells, frame.TextCell("42"))
	input, err := frame.New(frame.NewTextColumn("late", cells...))
	require.NoError(t, err)
	output := Normalize(input)
	late, _ := output.Column("late")
	require.Equal(t, frame.KindText, late.Kind)
}
