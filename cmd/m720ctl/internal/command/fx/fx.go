// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package fx implements the "fx" command group.
package fx

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/bufdev/m720ctl/cmd/m720ctl/internal/command/fx/fxrate"
)

// NewCommand returns a new fx command group.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Inspect exchange rates",
		SubCommands: []*appcmd.Command{
			fxrate.NewCommand("rate", builder),
		},
	}
}
