// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package m720fx values foreign-currency amounts in EUR at a historical date.
//
// A RateSource provides the EUR value of one unit of a currency on a date.
// The Converter wraps a RateSource, caches rates per (currency, date) pair,
// and never fails: any lookup problem yields an invalid decimal.NullDecimal
// so that a single bad row does not abort aggregation.
package m720fx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/bufdev/m720ctl/internal/pkg/frankfurter"
	"github.com/bufdev/m720ctl/internal/standard/xtime"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ReportingCurrency is the currency of the declaration.
const ReportingCurrency = "EUR"

// ErrRateUnavailable is returned by sources that have no rate for a currency and date.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateSource provides historical exchange rates.
type RateSource interface {
	// Rate returns the value in EUR of one unit of currency on date.
	Rate(ctx context.Context, currency string, date xtime.Date) (decimal.Decimal, error)
}

// ValuationDate returns the date at which positions of the given tax year
// are valued: the last Monday-Friday day of the year.
func ValuationDate(year int) xtime.Date {
	return xtime.LastBusinessDayOfYear(year)
}

// IsCurrencyCode returns true if code is a known ISO-4217 alphabetic code.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 || strings.ToUpper(code) != code {
		return false
	}
	return money.GetCurrency(code) != nil
}

// Converter converts amounts to EUR. It is safe for concurrent use.
type Converter struct {
	logger *slog.Logger
	source RateSource
	// rates caches rateResult values by "CUR@YYYY-MM-DD" for the lifetime of the Converter.
	rates *cache.Cache
}

// NewConverter returns a new Converter reading rates from source.
func NewConverter(logger *slog.Logger, source RateSource) *Converter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Converter{
		logger: logger,
		source: source,
		rates:  cache.New(cache.NoExpiration, 0),
	}
}

// Convert returns amount, expressed in currency, in EUR at date.
//
// Returns an invalid NullDecimal if amount is invalid or no rate is available.
func (c *Converter) Convert(ctx context.Context, amount decimal.NullDecimal, currency string, date xtime.Date) decimal.NullDecimal {
	if !amount.Valid {
		return decimal.NullDecimal{}
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == ReportingCurrency {
		return amount
	}
	rate, err := c.rate(ctx, currency, date)
	if err != nil {
		c.logger.Warn(
			"currency conversion unavailable",
			"currency", currency,
			"date", date.String(),
			"error", err,
		)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(amount.Decimal.Mul(rate))
}

// NewFrankfurterSource returns a RateSource backed by the frankfurter.dev API.
func NewFrankfurterSource(client frankfurter.Client) RateSource {
	return &frankfurterSource{client: client}
}

// StaticRate is a single EUR rate for a currency on a date.
type StaticRate struct {
	// Currency is the ISO-4217 code.
	Currency string
	// Date is the rate date.
	Date xtime.Date
	// Rate is the value in EUR of one unit of Currency.
	Rate decimal.Decimal
}

// NewStaticSource returns a RateSource serving the given rates.
//
// Lookups must match the date exactly. Later entries override earlier ones.
func NewStaticSource(rates []StaticRate) RateSource {
	source := &staticSource{
		rates: make(map[string]decimal.Decimal, len(rates)),
	}
	for _, rate := range rates {
		source.rates[strings.ToUpper(rate.Currency)+"@"+rate.Date.String()] = rate.Rate
	}
	return source
}

// NewFileSource reads a YAML rates file and returns a RateSource serving it.
//
// The file has the form:
//
//	rates:
//	  - currency: USD
//	    date: 2024-12-31
//	    rate: "0.96256"
func NewFileSource(filePath string) (RateSource, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading rates file: %w", err)
	}
	var externalFile externalRatesFile
	yamlDecoder := yaml.NewDecoder(bytes.NewReader(data))
	// Reject unknown fields.
	yamlDecoder.KnownFields(true)
	if err := yamlDecoder.Decode(&externalFile); err != nil {
		return nil, fmt.Errorf("parsing rates file %s: %w", filePath, err)
	}
	rates := make([]StaticRate, 0, len(externalFile.Rates))
	for i, externalRate := range externalFile.Rates {
		date, err := xtime.ParseDate(externalRate.Date)
		if err != nil {
			return nil, fmt.Errorf("rates[%d]: invalid date %q: %w", i, externalRate.Date, err)
		}
		rate, err := decimal.NewFromString(externalRate.Rate)
		if err != nil {
			return nil, fmt.Errorf("rates[%d]: invalid rate %q: %w", i, externalRate.Rate, err)
		}
		rates = append(rates, StaticRate{
			Currency: externalRate.Currency,
			Date:     date,
			Rate:     rate,
		})
	}
	return NewStaticSource(rates), nil
}

// *** PRIVATE ***

// rateResult is a cached lookup. Failures are cached too so that an
// unsupported currency is only looked up once.
type rateResult struct {
	rate decimal.Decimal
	err  error
}

func (c *Converter) rate(ctx context.Context, currency string, date xtime.Date) (decimal.Decimal, error) {
	key := currency + "@" + date.String()
	if cached, ok := c.rates.Get(key); ok {
		result := cached.(rateResult)
		return result.rate, result.err
	}
	if !IsCurrencyCode(currency) {
		err := fmt.Errorf("unknown currency code %q", currency)
		c.rates.Set(key, rateResult{err: err}, cache.NoExpiration)
		return decimal.Decimal{}, err
	}
	rate, err := c.source.Rate(ctx, currency, date)
	if err != nil {
		// Do not cache cancellation, it says nothing about the rate.
		if ctx.Err() == nil {
			c.rates.Set(key, rateResult{err: err}, cache.NoExpiration)
		}
		return decimal.Decimal{}, err
	}
	if !rate.IsPositive() {
		err := fmt.Errorf("non-positive rate %s for %s on %s", rate, currency, date)
		c.rates.Set(key, rateResult{err: err}, cache.NoExpiration)
		return decimal.Decimal{}, err
	}
	c.rates.Set(key, rateResult{rate: rate}, cache.NoExpiration)
	return rate, nil
}

type frankfurterSource struct {
	client frankfurter.Client
}

func (s *frankfurterSource) Rate(ctx context.Context, currency string, date xtime.Date) (decimal.Decimal, error) {
	rate, err := s.client.GetRate(ctx, currency, ReportingCurrency, date.String())
	if err != nil {
		return decimal.Decimal{}, err
	}
	return rate.Rate, nil
}

type staticSource struct {
	rates map[string]decimal.Decimal
}

func (s *staticSource) Rate(_ context.Context, currency string, date xtime.Date) (decimal.Decimal, error) {
	rate, ok := s.rates[currency+"@"+date.String()]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%s on %s: %w", currency, date, ErrRateUnavailable)
	}
	return rate, nil
}

// externalRatesFile is the YAML-serializable rates file structure.
type externalRatesFile struct {
	Rates []externalRate `yaml:"rates"`
}

type externalRate struct {
	Currency string `yaml:"currency"`
	Date     string `yaml:"date"`
	Rate     string `yaml:"rate"`
}
