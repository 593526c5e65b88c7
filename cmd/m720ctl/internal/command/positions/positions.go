// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package positions implements the "positions" command.
package positions

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/m720ctl/cmd/m720ctl/internal/m720cmd"
	"github.com/bufdev/m720ctl/internal/m720/m720position"
	"github.com/bufdev/m720ctl/internal/pkg/cliio"
	"github.com/spf13/pflag"
)

const (
	// formatFlagName is the flag name for the output format.
	formatFlagName = "format"
	// previousFlagName is the flag name for classifying against the previous year.
	previousFlagName = "previous"
)

// NewCommand returns a new positions command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Display the aggregated positions of all configured broker exports",
		Long: `Display the aggregated positions of all configured broker exports.

Positions are shown in EUR at the last business day of each file's year.
With --previous, positions are classified as new or continuing against the
previous_files of the configuration, and previous positions no longer held
are listed as closed.`,
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
	Format   string
	Previous bool
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, m720cmd.DirFlagName, ".", m720cmd.DirFlagUsage)
	flagSet.StringVar(&f.Format, formatFlagName, string(cliio.FormatTable), "Output format (table, csv, json)")
	flagSet.BoolVar(&f.Previous, previousFlagName, false, "Classify positions against the previous year")
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
	config, err := m720cmd.ReadConfig(container, flags.Dir)
	if err != nil {
		return err
	}
	aggregator, err := m720cmd.NewAggregator(container, config)
	if err != nil {
		return err
	}
	var current []*m720position.Position
	var displayed []*m720position.Position
	if flags.Previous {
		result, err := aggregator.AggregateWithPrevious(ctx, config.Files, config.PreviousFiles)
		if err != nil {
			return err
		}
		current = result.Current
		displayed = append(append(displayed, result.Current...), result.Closed...)
	} else {
		current, err = aggregator.Aggregate(ctx, config.Files)
		if err != nil {
			return err
		}
		displayed = current
	}
	if _, missing := m720position.TotalEUR(current); missing > 0 {
		container.Logger().Warn("positions without eur value are excluded from the total", "count", missing)
	}
	rows := make([][]string, len(displayed))
	for i, position := range displayed {
		rows[i] = m720position.ToRow(position)
	}
	return cliio.Write(
		container.Stdout(),
		format,
		cliio.Table{
			Headers: m720position.Headers(),
			Rows:    rows,
			Totals:  m720position.TotalsRow(current),
		},
		displayed,
	)
}
