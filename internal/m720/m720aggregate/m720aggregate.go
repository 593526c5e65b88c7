// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package m720aggregate reads broker exports and builds the canonical
// positions to declare.
//
// Each file goes through the same pipeline:
//
//	read CSV -> map broker columns -> normalize numbers -> value in EUR -> build positions
//
// Rows without an ISIN are dropped and logged. Rows with an ISIN are always
// kept, with missing values left missing. Schema problems and unsupported
// brokers fail the whole run.
package m720aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bufdev/m720ctl/internal/m720/m720broker"
	"github.com/bufdev/m720ctl/internal/m720/m720config"
	"github.com/bufdev/m720ctl/internal/m720/m720fx"
	"github.com/bufdev/m720ctl/internal/m720/m720position"
	"github.com/bufdev/m720ctl/internal/pkg/frame"
	"github.com/bufdev/m720ctl/internal/pkg/numeric"
	"github.com/bufdev/m720ctl/internal/standard/xtime"
	"github.com/shopspring/decimal"
)

// Aggregator builds canonical positions from broker exports.
type Aggregator interface {
	// Aggregate reads every file and returns the concatenated positions, in file order.
	//
	// Returns an empty slice if configs is empty.
	Aggregate(ctx context.Context, configs []m720config.FileConfig) ([]*m720position.Position, error)
	// AggregateWithPrevious aggregates the current and previous files and
	// classifies positions against the previous year.
	AggregateWithPrevious(ctx context.Context, current []m720config.FileConfig, previous []m720config.FileConfig) (*Result, error)
}

// AggregatorOption is a functional option for configuring the Aggregator.
type AggregatorOption func(*aggregator)

// AggregatorWithValuationDateFunc sets the function giving the date at which
// a file of the given year is valued. The default is m720fx.ValuationDate.
func AggregatorWithValuationDateFunc(valuationDate func(year int) xtime.Date) AggregatorOption {
	return func(a *aggregator) {
		a.valuationDate = valuationDate
	}
}

// NewAggregator returns a new Aggregator.
//
// converter values positions of brokers that do not report EUR values.
func NewAggregator(logger *slog.Logger, converter *m720fx.Converter, options ...AggregatorOption) Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &aggregator{
		logger:        logger,
		converter:     converter,
		valuationDate: m720fx.ValuationDate,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Result is the classification of positions against the previous year.
type Result struct {
	// Current are the positions of the declared year, in file order.
	// Each has StatusNew or StatusContinuing.
	Current []*m720position.Position
	// Continuing are previous-year positions still held, re-declared as
	// modifications. Only the first previous-year row of each product is kept,
	// in previous-year order.
	Continuing []*m720position.Position
	// Closed are previous-year positions no longer held.
	Closed []*m720position.Position
}

// DeclaredCount returns the number of position records of the declaration.
func (r *Result) DeclaredCount() int {
	return len(r.Current) + len(r.Continuing)
}

// TotalEUR returns the EUR total of the current positions.
func (r *Result) TotalEUR() decimal.Decimal {
	total, _ := m720position.TotalEUR(r.Current)
	return total
}

// *** PRIVATE ***

type aggregator struct {
	logger        *slog.Logger
	converter     *m720fx.Converter
	valuationDate func(year int) xtime.Date
}

func (a *aggregator) Aggregate(ctx context.Context, configs []m720config.FileConfig) ([]*m720position.Position, error) {
	positions := make([]*m720position.Position, 0)
	for _, config := range configs {
		filePositions, err := a.aggregateFile(ctx, config)
		if err != nil {
			return nil, err
		}
		positions = append(positions, filePositions...)
	}
	return positions, nil
}

func (a *aggregator) AggregateWithPrevious(
	ctx context.Context,
	current []m720config.FileConfig,
	previous []m720config.FileConfig,
) (*Result, error) {
	currentPositions, err := a.Aggregate(ctx, current)
	if err != nil {
		return nil, err
	}
	previousPositions, err := a.Aggregate(ctx, previous)
	if err != nil {
		return nil, err
	}
	// Positions are matched by product text, not ISIN: two instruments with
	// the same description are considered the same holding.
	currentProducts := make(map[string]struct{}, len(currentPositions))
	for _, position := range currentPositions {
		currentProducts[position.Product] = struct{}{}
	}
	previousProducts := make(map[string]struct{}, len(previousPositions))
	result := &Result{
		Current: currentPositions,
	}
	for _, position := range previousPositions {
		if _, ok := currentProducts[position.Product]; !ok {
			position.Status = m720position.StatusClosed
			result.Closed = append(result.Closed, position)
			continue
		}
		position.Status = m720position.StatusContinuing
		if _, ok := previousProducts[position.Product]; !ok {
			result.Continuing = append(result.Continuing, position)
		}
		previousProducts[position.Product] = struct{}{}
	}
	for _, position := range currentPositions {
		if _, ok := previousProducts[position.Product]; ok {
			position.Status = m720position.StatusContinuing
		} else {
			position.Status = m720position.StatusNew
		}
	}
	if len(result.Closed) > 0 {
		a.logger.Info(
			"closed positions",
			"products", products(result.Closed),
		)
	}
	return result, nil
}

func (a *aggregator) aggregateFile(ctx context.Context, config m720config.FileConfig) ([]*m720position.Position, error) {
	variant, err := m720broker.VariantFor(config.Broker)
	if err != nil {
		return nil, err
	}
	raw, err := frame.ReadCSVFile(config.Path)
	if err != nil {
		return nil, err
	}
	mapped, err := m720broker.Map(raw, config.Broker)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.Path, err)
	}
	normalized := numeric.Normalize(mapped)
	a.logger.Info(
		"loaded broker data",
		"broker", variant.DisplayName,
		"path", config.Path,
		"presented", config.Presented,
		"rows", normalized.Len(),
	)
	positions, err := a.buildPositions(ctx, normalized, variant, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.Path, err)
	}
	return positions, nil
}

// buildPositions converts the rows of a mapped and normalized frame into positions.
func (a *aggregator) buildPositions(
	ctx context.Context,
	input *frame.Frame,
	variant m720broker.Variant,
	config m720config.FileConfig,
) ([]*m720position.Position, error) {
	if input.IsEmpty() {
		return nil, nil
	}
	// Step 1: drop rows without an ISIN.
	withISIN := input.Filter(func(row frame.Row) bool {
		return strings.TrimSpace(textValue(row.Get(m720broker.ColumnISIN))) != ""
	})
	if withoutISIN := input.Len() - withISIN.Len(); withoutISIN > 0 {
		var droppedProducts []string
		for _, row := range input.Rows() {
			if strings.TrimSpace(textValue(row.Get(m720broker.ColumnISIN))) == "" {
				droppedProducts = append(droppedProducts, textValue(row.Get(m720broker.ColumnProduct)))
			}
		}
		a.logger.Info(
			"dropped products without isin",
			"broker", variant.DisplayName,
			"products", droppedProducts,
		)
	}
	// Step 2: build positions, valuing in EUR if the broker does not report it.
	//
	// Every row with an ISIN is kept. Missing values stay missing and are
	// rejected when encoding.
	valuationDate := a.valuationDate(config.Year)
	positions := make([]*m720position.Position, 0, withISIN.Len())
	for _, row := range withISIN.Rows() {
		position := &m720position.Position{
			Product:         strings.TrimSpace(textValue(row.Get(m720broker.ColumnProduct))),
			ISIN:            strings.ToUpper(strings.TrimSpace(textValue(row.Get(m720broker.ColumnISIN)))),
			Amount:          decimalValue(row.Get(m720broker.ColumnAmount)),
			LocalValue:      decimalValue(row.Get(m720broker.ColumnLocalValue)),
			LocalCurrency:   strings.ToUpper(strings.TrimSpace(textValue(row.Get(m720broker.ColumnLocalCurrency)))),
			BrokerCountryID: config.Broker.CountryCode(),
			Broker:          config.Broker,
		}
		if position.Product == "" {
			position.Product = position.ISIN
			a.logger.Warn(
				"position without product, using isin",
				"broker", variant.DisplayName,
				"isin", position.ISIN,
			)
		}
		if !m720fx.IsCurrencyCode(position.LocalCurrency) {
			a.logger.Warn(
				"position with unknown currency",
				"broker", variant.DisplayName,
				"isin", position.ISIN,
				"currency", position.LocalCurrency,
			)
		}
		if !position.Amount.Valid {
			a.logger.Warn(
				"position without amount",
				"broker", variant.DisplayName,
				"isin", position.ISIN,
			)
		}
		if variant.NeedsValuation {
			if a.converter == nil {
				return nil, fmt.Errorf("%s positions need a currency converter", variant.DisplayName)
			}
			position.EURValue = a.converter.Convert(ctx, position.LocalValue, position.LocalCurrency, valuationDate)
		} else {
			position.EURValue = decimalValue(row.Get(m720broker.ColumnEURValue))
		}
		positions = append(positions, position)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}

// textValue returns the text of a cell, or the formatted number of a numeric cell.
//
// Null cells are the empty string.
func textValue(cell frame.Cell) string {
	if !cell.Valid {
		return ""
	}
	if cell.Text != "" {
		return cell.Text
	}
	return cell.Number.String()
}

// decimalValue returns the numeric value of a cell, parsing text cells.
func decimalValue(cell frame.Cell) decimal.NullDecimal {
	if !cell.Valid {
		return decimal.NullDecimal{}
	}
	if cell.Text == "" {
		return decimal.NewNullDecimal(cell.Number)
	}
	value, ok := numeric.ParseDecimal(cell.Text)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value)
}

func products(positions []*m720position.Position) []string {
	products := make([]string, len(positions))
	for i, position := range positions {
		products[i] = position.Product
	}
	return products
}
