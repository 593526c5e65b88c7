// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package m720broker maps broker portfolio exports onto the canonical
// position columns.
//
// Each supported broker is described by a Variant: the source-to-canonical
// column names, an optional compound "CUR VALUE" column to split, whether EUR
// values must be computed, and the country code reported for the broker.
// One generic routine, Map, consumes a Variant.
package m720broker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bufdev/m720ctl/internal/pkg/frame"
)

// Canonical column names.
const (
	ColumnProduct         = "product"
	ColumnISIN            = "isin"
	ColumnAmount          = "amount"
	ColumnPrice           = "price"
	ColumnLocalValue      = "local_value"
	ColumnLocalCurrency   = "local_curr"
	ColumnEURValue        = "eur_value"
	ColumnBrokerCountryID = "broker_country_id"
)

// Kind is a supported broker.
type Kind string

const (
	// KindDegiro is the DEGIRO retail broker (Netherlands).
	KindDegiro Kind = "degiro"
	// KindIBKR is Interactive Brokers (Ireland entity).
	KindIBKR Kind = "ibkr"
)

// AllKinds returns all supported broker kinds.
func AllKinds() []Kind {
	return []Kind{KindDegiro, KindIBKR}
}

// ParseKind parses a broker name. Case and surrounding spaces are ignored.
//
// Returns an *UnsupportedBrokerError for unknown names.
func ParseKind(s string) (Kind, error) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(s))); kind {
	case KindDegiro, KindIBKR:
		return kind, nil
	default:
		return "", &UnsupportedBrokerError{Broker: s}
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// CountryCode returns the 2-letter country code reported for the broker.
//
// Returns the empty string for unsupported kinds.
func (k Kind) CountryCode() string {
	variant, ok := variants[k]
	if !ok {
		return ""
	}
	return variant.CountryCode
}

// Variant describes how a broker's export maps onto the canonical columns.
type Variant struct {
	// Kind is the broker.
	Kind Kind
	// DisplayName is the human-readable broker name.
	DisplayName string
	// CountryCode is the 2-letter code reported as broker_country_id.
	CountryCode string
	// Columns maps source column names to canonical column names, in output order.
	Columns []ColumnMapping
	// SplitColumn is a canonical column holding "CUR VALUE" text to be split
	// into local_curr and local_value. Empty if the broker has none.
	SplitColumn string
	// NeedsValuation is true if eur_value is not in the export and must be
	// computed from local_value and local_curr.
	NeedsValuation bool
}

// ColumnMapping maps one source column to one canonical column.
type ColumnMapping struct {
	Source    string
	Canonical string
}

// SourceColumns returns the source column names required by the Variant.
func (v Variant) SourceColumns() []string {
	names := make([]string, len(v.Columns))
	for i, mapping := range v.Columns {
		names[i] = mapping.Source
	}
	return names
}

// VariantFor returns the Variant for the broker kind.
//
// Returns an *UnsupportedBrokerError for unknown kinds.
func VariantFor(kind Kind) (Variant, error) {
	variant, ok := variants[kind]
	if !ok {
		return Variant{}, &UnsupportedBrokerError{Broker: string(kind)}
	}
	return variant, nil
}

// Map renames and selects the broker's columns into canonical columns and
// splits the compound currency column if the broker has one.
//
// Returns a *SchemaError if a required source column is missing.
func Map(input *frame.Frame, kind Kind) (*frame.Frame, error) {
	variant, err := VariantFor(kind)
	if err != nil {
		return nil, err
	}
	if missing := input.Missing(variant.SourceColumns()...); len(missing) > 0 {
		return nil, &SchemaError{Broker: kind, Columns: missing}
	}
	// Select first so unrelated columns sharing a canonical name cannot collide.
	selected, err := input.Select(variant.SourceColumns()...)
	if err != nil {
		return nil, err
	}
	rename := make(map[string]string, len(variant.Columns))
	for _, mapping := range variant.Columns {
		rename[mapping.Source] = mapping.Canonical
	}
	output, err := selected.Rename(rename)
	if err != nil {
		return nil, err
	}
	if variant.SplitColumn == "" {
		return output, nil
	}
	return splitCompoundColumn(output, variant.SplitColumn)
}

// SplitCompound splits "CUR VALUE" text (e.g., "USD 123,45") into the
// currency token and the numeric token.
//
// The first run of word characters is the currency and the following run of
// digits, commas, and dots is the value. Returns false if text does not match.
func SplitCompound(text string) (string, string, bool) {
	match := compoundRegexp.FindStringSubmatch(text)
	if match == nil {
		return "", "", false
	}
	return match[1], match[2], true
}

// JoinCompound joins a currency and a value with a single space, the inverse
// of SplitCompound.
func JoinCompound(currency string, value string) string {
	return currency + " " + value
}

// SchemaError is returned when a broker export lacks required columns.
type SchemaError struct {
	// Broker is the broker whose export was being mapped.
	Broker Kind
	// Columns are the missing source column names, sorted.
	Columns []string
}

// Error implements error.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s export is missing required columns: %s", e.Broker, strings.Join(e.Columns, ", "))
}

// Unwrap returns a *frame.MissingColumnsError for the missing columns.
func (e *SchemaError) Unwrap() error {
	return &frame.MissingColumnsError{Columns: e.Columns}
}

// UnsupportedBrokerError is returned for broker names outside AllKinds.
type UnsupportedBrokerError struct {
	Broker string
}

// Error implements error.
func (e *UnsupportedBrokerError) Error() string {
	return fmt.Sprintf("unsupported broker type %q, must be one of: degiro, ibkr", e.Broker)
}

// IsUnsupportedBroker returns true if err is or wraps an *UnsupportedBrokerError.
func IsUnsupportedBroker(err error) bool {
	var unsupportedBrokerError *UnsupportedBrokerError
	return errors.As(err, &unsupportedBrokerError)
}

// *** PRIVATE ***

// compoundRegexp extracts the currency and the value of a "CUR VALUE" cell.
var compoundRegexp = regexp.MustCompile(`(\w+)\s+([\d,\.]+)`)

var variants = map[Kind]Variant{
	KindDegiro: {
		Kind:        KindDegiro,
		DisplayName: "DEGIRO",
		CountryCode: "NL",
		Columns: []ColumnMapping{
			{Source: "Producto", Canonical: ColumnProduct},
			{Source: "Symbol/ISIN", Canonical: ColumnISIN},
			{Source: "Cantidad", Canonical: ColumnAmount},
			{Source: "Precio de", Canonical: ColumnPrice},
			{Source: "Valor local", Canonical: ColumnLocalValue},
			{Source: "Valor en EUR", Canonical: ColumnEURValue},
		},
		SplitColumn: ColumnLocalValue,
	},
	KindIBKR: {
		Kind:        KindIBKR,
		DisplayName: "IBKR",
		CountryCode: "IE",
		Columns: []ColumnMapping{
			{Source: "Description", Canonical: ColumnProduct},
			{Source: "ISIN", Canonical: ColumnISIN},
			{Source: "Quantity", Canonical: ColumnAmount},
			{Source: "PositionValue", Canonical: ColumnLocalValue},
			{Source: "CurrencyPrimary", Canonical: ColumnLocalCurrency},
		},
		NeedsValuation: true,
	},
}

// splitCompoundColumn replaces columnName with local_curr and local_value
// text columns. Cells that do not match are null in both columns.
func splitCompoundColumn(input *frame.Frame, columnName string) (*frame.Frame, error) {
	column, ok := input.Column(columnName)
	if !ok {
		return nil, &frame.MissingColumnsError{Columns: []string{columnName}}
	}
	currencies := make([]frame.Cell, len(column.Cells))
	values := make([]frame.Cell, len(column.Cells))
	for i := range column.Cells {
		currency, value, ok := SplitCompound(column.Format(i))
		if !ok {
			currencies[i] = frame.NullCell()
			values[i] = frame.NullCell()
			continue
		}
		currencies[i] = frame.TextCell(currency)
		values[i] = frame.TextCell(value)
	}
	output := input.Without(columnName)
	output, err := output.WithColumn(frame.NewTextColumn(ColumnLocalCurrency, currencies...))
	if err != nil {
		return nil, err
	}
	return output.WithColumn(frame.NewTextColumn(ColumnLocalValue, values...))
}
