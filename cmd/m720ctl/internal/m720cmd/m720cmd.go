// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package m720cmd provides shared wiring for m720ctl commands: reading the
// config, and constructing the rate source, converter, and aggregator it describes.
package m720cmd

import (
	"fmt"

	"buf.build/go/app/appext"
	"github.com/bufdev/m720ctl/internal/m720/m720aggregate"
	"github.com/bufdev/m720ctl/internal/m720/m720config"
	"github.com/bufdev/m720ctl/internal/m720/m720fx"
	"github.com/bufdev/m720ctl/internal/pkg/frankfurter"
)

// DirFlagName is the flag name for the directory containing m720ctl.yaml.
const DirFlagName = "dir"

// DirFlagUsage is the usage of the DirFlagName flag.
const DirFlagUsage = "The m720ctl directory containing m720ctl.yaml"

// ReadConfig reads the configuration file in dirPath.
//
// Taxpayer identifiers are overridden from the container environment.
func ReadConfig(container appext.Container, dirPath string) (*m720config.Config, error) {
	return m720config.ReadConfig(dirPath, container.Env)
}

// NewRateSource returns the RateSource described by the config.
func NewRateSource(config *m720config.Config) (m720fx.RateSource, error) {
	switch config.FX.Source {
	case m720config.FXSourceFrankfurter:
		var options []frankfurter.ClientOption
		if config.FX.BaseURL != "" {
			options = append(options, frankfurter.ClientWithBaseURL(config.FX.BaseURL))
		}
		return m720fx.NewFrankfurterSource(frankfurter.NewClient(options...)), nil
	case m720config.FXSourceFile:
		return m720fx.NewFileSource(config.FX.RatesFile)
	default:
		return nil, fmt.Errorf("unknown fx source %q", config.FX.Source)
	}
}

// NewAggregator returns an Aggregator valuing positions with the config's rate source.
func NewAggregator(container appext.Container, config *m720config.Config) (m720aggregate.Aggregator, error) {
	rateSource, err := NewRateSource(config)
	if err != nil {
		return nil, err
	}
	logger := container.Logger()
	converter := m720fx.NewConverter(logger, rateSource)
	return m720aggregate.NewAggregator(logger, converter), nil
}
