// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configinit implements the "config init" command.
package configinit

import (
	"context"
	"fmt"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/m720ctl/cmd/m720ctl/internal/m720cmd"
	"github.com/bufdev/m720ctl/internal/m720/m720config"
	"github.com/spf13/pflag"
)

// NewCommand returns a new config init command that creates a default configuration file.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Create a new configuration file",
		Args:  appcmd.NoArgs,
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
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, m720cmd.DirFlagName, ".", m720cmd.DirFlagUsage)
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	filePath, err := m720config.InitConfig(flags.Dir)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(container.Stdout(), "%s\n", filePath)
	return err
}
