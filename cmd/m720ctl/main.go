// Copyright 2026 Peter Edge
//
// All rights reserved.

package main

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/m720ctl/cmd/m720ctl/internal/command/config"
	"github.com/bufdev/m720ctl/cmd/m720ctl/internal/command/fx"
	"github.com/bufdev/m720ctl/cmd/m720ctl/internal/command/generate"
	"github.com/bufdev/m720ctl/cmd/m720ctl/internal/command/positions"
)

func main() {
	appcmd.Main(context.Background(), newRootCommand("m720ctl"))
}

// newRootCommand creates the root m720ctl command with all sub-commands.
func newRootCommand(name string) *appcmd.Command {
	builder := appext.NewBuilder(name)
	return &appcmd.Command{
		Use:                 name,
		Short:               "Build the Modelo 720 declaration of foreign assets from broker exports",
		BindPersistentFlags: builder.BindRoot,
		SubCommands: []*appcmd.Command{
			config.NewCommand("config", builder),
			fx.NewCommand("fx", builder),
			generate.NewCommand("generate", builder),
			positions.NewCommand("positions", builder),
		},
	}
}
