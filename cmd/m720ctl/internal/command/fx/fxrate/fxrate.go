// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package fxrate implements the "fx rate" command.
package fxrate

import (
	"context"
	"fmt"
	"strings"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/m720ctl/cmd/m720ctl/internal/m720cmd"
	"github.com/bufdev/m720ctl/internal/m720/m720fx"
	"github.com/bufdev/m720ctl/internal/standard/xtime"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

const (
	// currencyFlagName is the flag name for the currency.
	currencyFlagName = "currency"
	// dateFlagName is the flag name for the rate date.
	dateFlagName = "date"
)

// NewCommand returns a new fx rate command that prints the EUR rate of a currency.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Print the EUR value of one unit of a currency from the configured rate source",
		Long: `Print the EUR value of one unit of a currency from the configured rate source.

The date defaults to the valuation date of the configured tax year, the
last business day of the year.`,
		Args: appcmd.NoArgs,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	Dir      string
	Currency string
	// Date is the rate date (YYYY-MM-DD).
	Date string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, m720cmd.DirFlagName, ".", m720cmd.DirFlagUsage)
	flagSet.StringVar(&f.Currency, currencyFlagName, "", "The ISO-4217 currency code")
	flagSet.StringVar(&f.Date, dateFlagName, "", "The rate date (YYYY-MM-DD)")
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	currency := strings.ToUpper(strings.TrimSpace(flags.Currency))
	if currency == "" {
		return appcmd.NewInvalidArgumentErrorf("--%s is required", currencyFlagName)
	}
	if !m720fx.IsCurrencyCode(currency) {
		return appcmd.NewInvalidArgumentErrorf("--%s: unknown currency code %q", currencyFlagName, flags.Currency)
	}
	config, err := m720cmd.ReadConfig(container, flags.Dir)
	if err != nil {
		return err
	}
	date := m720fx.ValuationDate(config.Taxpayer.Year)
	if flags.Date != "" {
		date, err = xtime.ParseDate(flags.Date)
		if err != nil {
			return appcmd.NewInvalidArgumentErrorf("--%s: %v", dateFlagName, err)
		}
	}
	rateSource, err := m720cmd.NewRateSource(config)
	if err != nil {
		return err
	}
	rate := decimal.NewFromInt(1)
	if currency != m720fx.ReportingCurrency {
		rate, err = rateSource.Rate(ctx, currency, date)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(container.Stdout(), "%s\t%s\t%s\n", currency, date.String(), rate.String())
	return err
}
