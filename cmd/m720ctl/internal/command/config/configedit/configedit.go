// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configedit implements the "config edit" command.
package configedit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/m720ctl/cmd/m720ctl/internal/m720cmd"
	"github.com/bufdev/m720ctl/internal/m720/m720config"
	"github.com/spf13/pflag"
)

// NewCommand returns a new config edit command that opens the configuration file in an editor.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Edit the configuration file in $EDITOR",
		Long: `Edit the configuration file in $EDITOR.

The file is created from the default template if it does not exist, and
validated once the editor exits.`,
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
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, m720cmd.DirFlagName, ".", m720cmd.DirFlagUsage)
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	configFilePath := m720config.ConfigFilePath(flags.Dir)
	if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
		if _, err := m720config.InitConfig(flags.Dir); err != nil {
			return err
		}
	}
	editor := container.Env("EDITOR")
	if editor == "" {
		return errors.New("EDITOR environment variable is not set")
	}
	cmd := exec.CommandContext(ctx, editor, configFilePath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor: %w", err)
	}
	if err := m720config.ValidateConfig(flags.Dir, container.Env); err != nil {
		container.Logger().Warn("configuration is not valid yet", "path", configFilePath, "error", err)
	}
	_, err := fmt.Fprintf(container.Stdout(), "%s\n", configFilePath)
	return err
}
