// Copyright 2026 Peter Edge
//
// All rights reserved.

package m720position

import (
	"testing"

	"github.com/bufdev/m720ctl/internal/m720/m720broker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTotalEUR(t *testing.T) {
	t.Parallel()
	positions := []*Position{
		{ISIN: "NL0000000001", EURValue: decimal.NewNullDecimal(decimal.RequireFromString("1234.56"))},
		{ISIN: "US0000000002"},
		{ISIN: "IE0000000003", EURValue: decimal.NewNullDecimal(decimal.RequireFromString("0.44"))},
	}
	total, missing := TotalEUR(positions)
	require.Equal(t, "1235", total.String())
	require.Equal(t, 1, missing)

	total, missing = TotalEUR(nil)
	require.True(t, total.IsZero())
	require.Equal(t, 0, missing)
}

func TestSortByISIN(t *testing.T) {
	t.Parallel()
	positions := []*Position{
		{ISIN: "US0000000002", Product: "B"},
		{ISIN: "IE0000000003", Product: "C"},
		{ISIN: "US0000000002", Product: "A"},
	}
	SortByISIN(positions)
	require.Equal(t, "IE0000000003", positions[0].ISIN)
	// Equal ISINs keep their input order.
	require.Equal(t, "B", positions[1].Product)
	require.Equal(t, "A", positions[2].Product)
}

func TestToRow(t *testing.T) {
	t.Parallel()
	position := &Position{
		Product:         "ACME NV",
		ISIN:            "NL0000000001",
		Amount:          decimal.NewNullDecimal(decimal.NewFromInt(10)),
		LocalValue:      decimal.NewNullDecimal(decimal.RequireFromString("1234.5")),
		LocalCurrency:   "EUR",
		BrokerCountryID: "NL",
		Broker:          m720broker.KindDegiro,
		Status:          StatusNew,
	}
	row := ToRow(position)
	require.Len(t, row, len(Headers()))
	require.Equal(t, []string{"degiro", "NL", "NL0000000001", "ACME NV", "10", "EUR", "1234.50", "", "new"}, row)
	require.Equal(t, "NL", position.ISINCountry())

	position.Amount = decimal.NullDecimal{}
	require.Equal(t, "", ToRow(position)[4])

	totals := TotalsRow([]*Position{position})
	require.Equal(t, "TOTAL", totals[0])
	require.Equal(t, "0.00", totals[7])
}
