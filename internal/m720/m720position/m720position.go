// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package m720position defines the canonical financial position shared by
// all broker sources, and helpers to display and order positions.
package m720position

import (
	"sort"

	"github.com/bufdev/m720ctl/internal/m720/m720broker"
	"github.com/shopspring/decimal"
)

// Status classifies a position against the previous year's declaration.
type Status string

const (
	// StatusNew is a position not held in the previous year.
	StatusNew Status = "new"
	// StatusContinuing is a previous-year position still held.
	StatusContinuing Status = "continuing"
	// StatusClosed is a previous-year position no longer held.
	StatusClosed Status = "closed"
)

// Position is a holding normalized from any broker.
type Position struct {
	// Product is the free-text instrument name.
	Product string `json:"product"`
	// ISIN is the instrument identifier. Never empty.
	ISIN string `json:"isin"`
	// Amount is the quantity held. Invalid if the broker did not report it.
	Amount decimal.NullDecimal `json:"amount"`
	// LocalValue is the position value in LocalCurrency.
	LocalValue decimal.NullDecimal `json:"local_value"`
	// LocalCurrency is the currency code reported by the broker, empty if
	// none was reported. It is not guaranteed to be a known ISO-4217 code.
	LocalCurrency string `json:"local_curr"`
	// EURValue is the position value in EUR. Invalid if conversion failed.
	EURValue decimal.NullDecimal `json:"eur_value"`
	// BrokerCountryID is the country code of the broker that reported the position.
	BrokerCountryID string `json:"broker_country_id"`
	// Broker is the broker that reported the position.
	Broker m720broker.Kind `json:"broker"`
	// Status is the classification against the previous year, if computed.
	Status Status `json:"status,omitempty"`
}

// ISINCountry returns the first two characters of the ISIN.
func (p *Position) ISINCountry() string {
	if len(p.ISIN) < 2 {
		return p.ISIN
	}
	return p.ISIN[:2]
}

// TotalEUR sums the valid EUR values of the positions.
//
// The second return value is the number of positions without a EUR value.
func TotalEUR(positions []*Position) (decimal.Decimal, int) {
	total := decimal.Zero
	var missing int
	for _, position := range positions {
		if !position.EURValue.Valid {
			missing++
			continue
		}
		total = total.Add(position.EURValue.Decimal)
	}
	return total, missing
}

// SortByISIN sorts positions by ISIN, keeping the input order for equal ISINs.
func SortByISIN(positions []*Position) {
	sort.SliceStable(positions, func(i int, j int) bool {
		return positions[i].ISIN < positions[j].ISIN
	})
}

// Headers returns the column headers for table/CSV output.
func Headers() []string {
	return []string{"BROKER", "COUNTRY", "ISIN", "PRODUCT", "AMOUNT", "CURRENCY", "LOCAL VALUE", "EUR VALUE", "STATUS"}
}

// ToRow converts a Position to a string slice for table/CSV output.
func ToRow(p *Position) []string {
	return []string{
		string(p.Broker),
		p.BrokerCountryID,
		p.ISIN,
		p.Product,
		formatNullAmount(p.Amount),
		p.LocalCurrency,
		formatNullDecimal(p.LocalValue, 2),
		formatNullDecimal(p.EURValue, 2),
		string(p.Status),
	}
}

// TotalsRow returns a row aligned with Headers holding the EUR total.
func TotalsRow(positions []*Position) []string {
	total, _ := TotalEUR(positions)
	row := make([]string, len(Headers()))
	row[0] = "TOTAL"
	row[7] = total.StringFixed(2)
	return row
}

// *** PRIVATE ***

func formatNullAmount(value decimal.NullDecimal) string {
	if !value.Valid {
		return ""
	}
	return value.Decimal.String()
}

func formatNullDecimal(value decimal.NullDecimal, places int32) string {
	if !value.Valid {
		return ""
	}
	return value.Decimal.StringFixed(places)
}
