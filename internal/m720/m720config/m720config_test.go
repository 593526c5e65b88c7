// Copyright 2026 Peter Edge
//
// All rights reserved.

package m720config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bufdev/m720ctl/internal/m720/m720broker"
	"github.com/stretchr/testify/require"
)

const testConfig = `version: v1
taxpayer:
  year: 2024
  national_id: 00000000t
  surnames: GARCIA LOPEZ
  name: MARIA
  phone: "676767676"
files:
  - path: exports/degiro.csv
    broker: DEGIRO
    year: 2024
  - path: ibkr.csv
    broker: ibkr
    presented: true
    year: 2024
previous_files:
  - path: degiro_2023.csv
    broker: degiro
    presented: true
    year: 2023
fx:
  source: file
  rates_file: rates.yaml
`

func TestReadConfig(t *testing.T) {
	t.Parallel()
	dirPath := t.TempDir()
	writeFile(t, filepath.Join(dirPath, ConfigFileName), testConfig)
	config, err := ReadConfig(dirPath, emptyEnv)
	require.NoError(t, err)
	require.Equal(t, 2024, config.Taxpayer.Year)
	require.Equal(t, "00000000T", config.Taxpayer.NationalID)
	require.Equal(t, "GARCIA LOPEZ MARIA", config.Taxpayer.FullName())
	require.Equal(t, "676767676", config.Taxpayer.Phone)
	require.Equal(t, "100", config.Taxpayer.OwnershipPercentage.String())
	require.Equal(
		t,
		[]FileConfig{
			{
				Path:   filepath.Join(dirPath, "exports", "degiro.csv"),
				Broker: m720broker.KindDegiro,
				Year:   2024,
			},
			{
				Path:      filepath.Join(dirPath, "ibkr.csv"),
				Broker:    m720broker.KindIBKR,
				Presented: true,
				Year:      2024,
			},
		},
		config.Files,
	)
	require.Len(t, config.PreviousFiles, 1)
	require.Equal(t, 2023, config.PreviousFiles[0].Year)
	require.Equal(t, FXSourceFile, config.FX.Source)
	require.Equal(t, filepath.Join(dirPath, "rates.yaml"), config.FX.RatesFile)
}

func TestReadConfigNotFound(t *testing.T) {
	t.Parallel()
	_, err := ReadConfig(t.TempDir(), emptyEnv)
	require.ErrorContains(t, err, "m720ctl config init")
}

func TestReadConfigUnknownField(t *testing.T) {
	t.Parallel()
	dirPath := t.TempDir()
	writeFile(t, filepath.Join(dirPath, ConfigFileName), testConfig+"unknown: true\n")
	_, err := ReadConfig(dirPath, emptyEnv)
	require.Error(t, err)
}

func TestReadConfigEnvOverrides(t *testing.T) {
	t.Parallel()
	dirPath := t.TempDir()
	writeFile(t, filepath.Join(dirPath, ConfigFileName), testConfig)
	writeFile(t, filepath.Join(dirPath, EnvFileName), "M720_NATIONAL_ID=X1234567L\nM720_PHONE=600000000\n")
	config, err := ReadConfig(dirPath, emptyEnv)
	require.NoError(t, err)
	require.Equal(t, "X1234567L", config.Taxpayer.NationalID)
	require.Equal(t, "600000000", config.Taxpayer.Phone)
	// The process environment wins over the .env file.
	config, err = ReadConfig(
		dirPath,
		mapEnv(map[string]string{PhoneEnvVar: "611111111"}),
	)
	require.NoError(t, err)
	require.Equal(t, "X1234567L", config.Taxpayer.NationalID)
	require.Equal(t, "611111111", config.Taxpayer.Phone)
}

func TestNewConfigValidation(t *testing.T) {
	t.Parallel()
	validConfig := func() ExternalConfig {
		return ExternalConfig{
			Version: "v1",
			Taxpayer: ExternalTaxpayerConfig{
				Year:       2024,
				NationalID: "00000000T",
				Surnames:   "GARCIA LOPEZ",
				Name:       "MARIA",
				Phone:      "676767676",
			},
			Files: []ExternalFileConfig{
				{Path: "degiro.csv", Broker: "degiro", Year: 2024},
			},
		}
	}
	percentage := func(value string) *string {
		return &value
	}
	tests := []struct {
		name          string
		modify        func(*ExternalConfig)
		errorContains string
	}{
		{
			name:          "version",
			modify:        func(c *ExternalConfig) { c.Version = "v2" },
			errorContains: "unsupported config version",
		},
		{
			name:          "year",
			modify:        func(c *ExternalConfig) { c.Taxpayer.Year = 24 },
			errorContains: "taxpayer.year",
		},
		{
			name:          "national_id",
			modify:        func(c *ExternalConfig) { c.Taxpayer.NationalID = "123" },
			errorContains: "taxpayer.national_id",
		},
		{
			name:          "phone",
			modify:        func(c *ExternalConfig) { c.Taxpayer.Phone = "67676767a" },
			errorContains: "taxpayer.phone",
		},
		{
			name:          "name",
			modify:        func(c *ExternalConfig) { c.Taxpayer.Name = " " },
			errorContains: "taxpayer.name",
		},
		{
			name:          "surnames",
			modify:        func(c *ExternalConfig) { c.Taxpayer.Surnames = "" },
			errorContains: "taxpayer.surnames",
		},
		{
			name:          "ownership_percentage",
			modify:        func(c *ExternalConfig) { c.Taxpayer.OwnershipPercentage = percentage("100.5") },
			errorContains: "taxpayer.ownership_percentage",
		},
		{
			name:          "no_files",
			modify:        func(c *ExternalConfig) { c.Files = nil },
			errorContains: "at least one entry in files",
		},
		{
			name:          "broker",
			modify:        func(c *ExternalConfig) { c.Files[0].Broker = "revolut" },
			errorContains: "files[0].broker",
		},
		{
			name:          "previous_broker",
			modify:        func(c *ExternalConfig) { c.PreviousFiles = []ExternalFileConfig{{Path: "x.csv", Broker: "x", Year: 2023}} },
			errorContains: "previous_files[0].broker",
		},
		{
			name:          "fx_source",
			modify:        func(c *ExternalConfig) { c.FX.Source = "ecb" },
			errorContains: "unknown fx.source",
		},
		{
			name:          "fx_rates_file",
			modify:        func(c *ExternalConfig) { c.FX.Source = "file" },
			errorContains: "fx.rates_file is required",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			externalConfig := validConfig()
			test.modify(&externalConfig)
			_, err := NewConfig(externalConfig, "/config")
			require.ErrorContains(t, err, test.errorContains)
		})
	}
	externalConfig := validConfig()
	externalConfig.Taxpayer.OwnershipPercentage = percentage("50.25")
	config, err := NewConfig(externalConfig, "/config")
	require.NoError(t, err)
	require.Equal(t, "50.25", config.Taxpayer.OwnershipPercentage.String())
	require.Equal(t, FXSourceFrankfurter, config.FX.Source)
}

func TestUnsupportedBrokerIsTyped(t *testing.T) {
	t.Parallel()
	_, err := NewConfig(
		ExternalConfig{
			Version: "v1",
			Taxpayer: ExternalTaxpayerConfig{
				Year:       2024,
				NationalID: "00000000T",
				Surnames:   "GARCIA LOPEZ",
				Name:       "MARIA",
				Phone:      "676767676",
			},
			Files: []ExternalFileConfig{{Path: "a.csv", Broker: "revolut", Year: 2024}},
		},
		"/config",
	)
	require.True(t, m720broker.IsUnsupportedBroker(err))
}

func TestInitConfig(t *testing.T) {
	t.Parallel()
	dirPath := filepath.Join(t.TempDir(), "new")
	filePath, err := InitConfig(dirPath)
	require.NoError(t, err)
	require.Equal(t, ConfigFilePath(dirPath), filePath)
	// The template only lacks the taxpayer identity.
	err = ValidateConfig(dirPath, emptyEnv)
	require.ErrorContains(t, err, "taxpayer.national_id")
	_, err = InitConfig(dirPath)
	require.ErrorContains(t, err, "already exists")
}

func emptyEnv(string) string {
	return ""
}

func mapEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

func writeFile(t *testing.T, filePath string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o600))
}
