// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package generate implements the "generate" command.
package generate

import (
	"context"
	"io"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/m720ctl/cmd/m720ctl/internal/m720cmd"
	"github.com/bufdev/m720ctl/internal/m720/m720position"
	"github.com/bufdev/m720ctl/internal/m720/m720record"
	"github.com/bufdev/m720ctl/internal/pkg/cliio"
	"github.com/spf13/pflag"
)

// outputFlagName is the flag name for the output file.
const outputFlagName = "output"

// NewCommand returns a new generate command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Generate the Modelo 720 text file",
		Long: `Generate the Modelo 720 text file.

Positions of all configured files are declared, sorted by ISIN. If
previous_files are configured, positions that were already held in the
previous year are also re-declared as modifications.

Every position must have a EUR value: if a currency could not be converted,
generation fails and nothing is written.`,
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
	Dir string
	// Output is the output file path, or "-" for stdout.
	Output string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, m720cmd.DirFlagName, ".", m720cmd.DirFlagUsage)
	flagSet.StringVarP(&f.Output, outputFlagName, "o", "-", `The output file path, or "-" for stdout`)
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	config, err := m720cmd.ReadConfig(container, flags.Dir)
	if err != nil {
		return err
	}
	aggregator, err := m720cmd.NewAggregator(container, config)
	if err != nil {
		return err
	}
	result, err := aggregator.AggregateWithPrevious(ctx, config.Files, config.PreviousFiles)
	if err != nil {
		return err
	}
	m720position.SortByISIN(result.Continuing)
	m720position.SortByISIN(result.Current)
	lines, err := m720record.NewEncoder(config.Taxpayer).EncodeResult(result)
	if err != nil {
		return err
	}
	if err := cliio.ForWriteFile(
		flags.Output,
		container.Stdout(),
		func(writer io.Writer) error {
			_, err := writer.Write(m720record.Marshal(lines))
			return err
		},
	); err != nil {
		return err
	}
	container.Logger().Info(
		"generated declaration",
		"output", flags.Output,
		"records", result.DeclaredCount(),
		"modifications", len(result.Continuing),
		"total_eur", result.TotalEUR().StringFixed(2),
	)
	return nil
}
