// Copyright 2026 Peter Edge
//
// All rights reserved.

package m720broker

import (
	"errors"
	"strings"
	"testing"

	"github.com/bufdev/m720ctl/internal/pkg/frame"
	"github.com/bufdev/m720ctl/internal/pkg/numeric"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()
	kind, err := ParseKind("degiro")
	require.NoError(t, err)
	require.Equal(t, KindDegiro, kind)
	kind, err = ParseKind(" IBKR ")
	require.NoError(t, err)
	require.Equal(t, KindIBKR, kind)

	_, err = ParseKind("trade_republic")
	var unsupportedBrokerError *UnsupportedBrokerError
	require.True(t, errors.As(err, &unsupportedBrokerError))
	require.Equal(t, "trade_republic", unsupportedBrokerError.Broker)
	require.True(t, IsUnsupportedBroker(err))
}

func TestCountryCode(t *testing.T) {
	t.Parallel()
	require.Equal(t, "NL", KindDegiro.CountryCode())
	require.Equal(t, "IE", KindIBKR.CountryCode())
	require.Equal(t, "", Kind("etoro").CountryCode())
	_, err := VariantFor(Kind("etoro"))
	require.True(t, IsUnsupportedBroker(err))
}

func TestSplitCompound(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		text         string
		wantCurrency string
		wantValue    string
		wantOK       bool
	}{
		{"USD 123,45", "USD", "123,45", true},
		{"EUR 1234.5", "EUR", "1234.5", true},
		{"GBX  10", "GBX", "10", true},
		{"", "", "", false},
		{"USD", "", "", false},
	} {
		currency, value, ok := SplitCompound(test.text)
		require.Equal(t, test.wantOK, ok, test.text)
		require.Equal(t, test.wantCurrency, currency, test.text)
		require.Equal(t, test.wantValue, value, test.text)
	}
}

func TestSplitCompoundRoundTrip(t *testing.T) {
	t.Parallel()
	for _, text := range []string{"USD 123,45", "EUR 0.5", "CHF 1000"} {
		currency, value, ok := SplitCompound(text)
		require.True(t, ok)
		require.Equal(t, text, JoinCompound(currency, value))
		// The value parses the same whichever separator was used.
		parsed, ok := numeric.ParseDecimal(value)
		require.True(t, ok)
		reparsed, ok := numeric.ParseDecimal(strings.ReplaceAll(value, ",", "."))
		require.True(t, ok)
		require.True(t, parsed.Equal(reparsed))
	}
}

func TestMapDegiro(t *testing.T) {
	t.Parallel()
	input, err := frame.ReadCSV(strings.NewReader(
		"Producto,Symbol/ISIN,Cantidad,Precio de,Valor local,Valor en EUR,Extra\n" +
			"ACME NV,NL0000000001,10,\"12,34\",\"USD 123,45\",\"118,80\",ignored\n" +
			"CASH & CASH FUND,,,,EUR 5,\"5,00\",\n",
	))
	require.NoError(t, err)
	output, err := Map(input, KindDegiro)
	require.NoError(t, err)
	require.Equal(
		t,
		[]string{ColumnProduct, ColumnISIN, ColumnAmount, ColumnPrice, ColumnEURValue, ColumnLocalCurrency, ColumnLocalValue},
		output.ColumnNames(),
	)
	rows := output.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, "ACME NV", rows[0].Get(ColumnProduct).Text)
	require.Equal(t, "USD", rows[0].Get(ColumnLocalCurrency).Text)
	require.Equal(t, "123,45", rows[0].Get(ColumnLocalValue).Text)
	require.Equal(t, "EUR", rows[1].Get(ColumnLocalCurrency).Text)
	require.False(t, rows[1].Get(ColumnISIN).Valid)
}

func TestMapIBKR(t *testing.T) {
	t.Parallel()
	input, err := frame.ReadCSV(strings.NewReader(
		"ClientAccountID,Description,ISIN,Quantity,PositionValue,CurrencyPrimary\n" +
			"U1,APPLE INC,US0378331005,5,1250.5,USD\n",
	))
	require.NoError(t, err)
	output, err := Map(input, KindIBKR)
	require.NoError(t, err)
	require.Equal(
		t,
		[]string{ColumnProduct, ColumnISIN, ColumnAmount, ColumnLocalValue, ColumnLocalCurrency},
		output.ColumnNames(),
	)
	variant, err := VariantFor(KindIBKR)
	require.NoError(t, err)
	require.True(t, variant.NeedsValuation)
	require.Empty(t, variant.SplitColumn)
}

func TestMapMissingColumns(t *testing.T) {
	t.Parallel()
	input, err := frame.ReadCSV(strings.NewReader("Description,ISIN,Quantity\nAPPLE INC,US0378331005,5\n"))
	require.NoError(t, err)
	_, err = Map(input, KindIBKR)
	var schemaError *SchemaError
	require.True(t, errors.As(err, &schemaError))
	require.Equal(t, KindIBKR, schemaError.Broker)
	require.Equal(t, []string{"CurrencyPrimary", "PositionValue"}, schemaError.Columns)
	var missingColumnsError *frame.MissingColumnsError
	require.True(t, errors.As(err, &missingColumnsError))
}

func TestMapUnsupported(t *testing.T) {
	t.Parallel()
	_, err := Map(frame.Empty(), Kind("etoro"))
	require.True(t, IsUnsupportedBroker(err))
}
