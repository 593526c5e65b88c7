// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package m720config provides configuration parsing and validation for m720ctl.
//
// Configuration is stored at <dir>/m720ctl.yaml, where <dir> is given by the
// --dir flag. Personal identifiers may be kept out of the file and supplied
// through M720_NATIONAL_ID and M720_PHONE, either in the process environment
// or in <dir>/.env.
package m720config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bufdev/m720ctl/internal/m720/m720broker"
	"github.com/bufdev/m720ctl/internal/standard/xos"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the configuration file within the config directory.
	ConfigFileName = "m720ctl.yaml"
	// EnvFileName is the name of the optional dotenv file within the config directory.
	EnvFileName = ".env"
	// NationalIDEnvVar overrides taxpayer.national_id.
	NationalIDEnvVar = "M720_NATIONAL_ID"
	// PhoneEnvVar overrides taxpayer.phone.
	PhoneEnvVar = "M720_PHONE"
)

// FXSource is the kind of exchange rate source.
type FXSource string

const (
	// FXSourceFrankfurter reads ECB rates from frankfurter.dev.
	FXSourceFrankfurter FXSource = "frankfurter"
	// FXSourceFile reads rates from a local YAML file.
	FXSourceFile FXSource = "file"
)

// configTemplate is the default configuration file template with comments.
// yaml.v3 does not preserve comments, so we hardcode the template string.
const configTemplate = `# The configuration file version.
#
# Required. The only current valid version is v1.
version: v1
# The person filing the declaration.
#
# Required. national_id and phone may instead be set with the
# M720_NATIONAL_ID and M720_PHONE environment variables, or in a .env
# file next to this file.
taxpayer:
  # The tax year being declared.
  year: 2024
  # The 9-character NIF/NIE.
  national_id: ""
  surnames: ""
  name: ""
  # The 9-digit contact phone number.
  phone: ""
  # Percentage of ownership of the declared assets.
  #
  # Optional. Defaults to 100.
  ownership_percentage: 100
# The year-end broker exports to declare.
#
# Required. Paths are relative to this file. broker is degiro or ibkr.
files:
  - path: degiro_2024.csv
    broker: degiro
    presented: false
    year: 2024
# The broker exports of the last declared year.
#
# Optional. Positions that were already declared are re-emitted as
# modification records.
# previous_files:
#   - path: degiro_2023.csv
#     broker: degiro
#     presented: true
#     year: 2023
# Exchange rate configuration.
#
# Optional. source is frankfurter (default) or file. The file source reads
# rates_file, a YAML file of the form:
#
#   rates:
#     - currency: USD
#       date: 2024-12-31
#       rate: "0.96256"
fx:
  source: frankfurter
`

// ExternalConfig is the YAML-serializable configuration file structure.
type ExternalConfig struct {
	// Version is the configuration file version (must be "v1").
	Version string `yaml:"version"`
	// Taxpayer holds the identity of the declarant.
	Taxpayer ExternalTaxpayerConfig `yaml:"taxpayer"`
	// Files are the broker exports of the declared year.
	Files []ExternalFileConfig `yaml:"files"`
	// PreviousFiles are the broker exports of the last declared year.
	PreviousFiles []ExternalFileConfig `yaml:"previous_files"`
	// FX holds the exchange rate configuration.
	FX ExternalFXConfig `yaml:"fx"`
}

// ExternalTaxpayerConfig holds the identity of the declarant.
type ExternalTaxpayerConfig struct {
	Year       int    `yaml:"year"`
	NationalID string `yaml:"national_id"`
	Surnames   string `yaml:"surnames"`
	Name       string `yaml:"name"`
	Phone      string `yaml:"phone"`
	// OwnershipPercentage is a pointer so that an absent value defaults to 100.
	OwnershipPercentage *string `yaml:"ownership_percentage"`
}

// ExternalFileConfig describes a single broker export.
type ExternalFileConfig struct {
	Path      string `yaml:"path"`
	Broker    string `yaml:"broker"`
	Presented bool   `yaml:"presented"`
	Year      int    `yaml:"year"`
}

// ExternalFXConfig holds the exchange rate configuration.
type ExternalFXConfig struct {
	Source    string `yaml:"source"`
	RatesFile string `yaml:"rates_file"`
	BaseURL   string `yaml:"base_url"`
}

// Config is the validated runtime configuration derived from the config file.
type Config struct {
	Taxpayer      Taxpayer
	Files         []FileConfig
	PreviousFiles []FileConfig
	FX            FXConfig
}

// Taxpayer is the identity of the declarant.
type Taxpayer struct {
	// Year is the tax year being declared.
	Year int
	// NationalID is the 9-character NIF/NIE.
	NationalID string
	Surnames   string
	Name       string
	// Phone is the 9-digit contact phone number.
	Phone string
	// OwnershipPercentage is in [0, 100].
	OwnershipPercentage decimal.Decimal
}

// FullName returns "<surnames> <name>", the form used on the declaration.
func (t Taxpayer) FullName() string {
	return strings.TrimSpace(t.Surnames + " " + t.Name)
}

// FileConfig describes a single broker export.
type FileConfig struct {
	// Path is the absolute path to the CSV file.
	Path string
	// Broker is the broker that produced the file.
	Broker m720broker.Kind
	// Presented is true if the file was already part of a filed declaration.
	Presented bool
	// Year is the year-end the export describes.
	Year int
}

// FXConfig is the exchange rate configuration.
type FXConfig struct {
	Source FXSource
	// RatesFile is the absolute path to the rates file, set when Source is FXSourceFile.
	RatesFile string
	// BaseURL overrides the frankfurter.dev API base URL if set.
	BaseURL string
}

// NewConfig validates an ExternalConfig and returns a runtime Config.
//
// Relative paths are resolved against configDirPath.
func NewConfig(externalConfig ExternalConfig, configDirPath string) (*Config, error) {
	if externalConfig.Version != "v1" {
		return nil, fmt.Errorf("unsupported config version %q, must be v1", externalConfig.Version)
	}
	taxpayer, err := newTaxpayer(externalConfig.Taxpayer)
	if err != nil {
		return nil, err
	}
	if len(externalConfig.Files) == 0 {
		return nil, errors.New("at least one entry in files is required")
	}
	files, err := newFileConfigs("files", externalConfig.Files, configDirPath)
	if err != nil {
		return nil, err
	}
	previousFiles, err := newFileConfigs("previous_files", externalConfig.PreviousFiles, configDirPath)
	if err != nil {
		return nil, err
	}
	fxConfig, err := newFXConfig(externalConfig.FX, configDirPath)
	if err != nil {
		return nil, err
	}
	return &Config{
		Taxpayer:      taxpayer,
		Files:         files,
		PreviousFiles: previousFiles,
		FX:            fxConfig,
	}, nil
}

// ConfigFilePath returns the path to the configuration file within the given config directory.
func ConfigFilePath(configDirPath string) string {
	return filepath.Join(configDirPath, ConfigFileName)
}

// ReadConfig reads and validates the configuration file from the given config directory.
//
// getenv is consulted for NationalIDEnvVar and PhoneEnvVar before the .env file.
// Returns a clear error message directing users to run "m720ctl config init" if the file is missing.
func ReadConfig(configDirPath string, getenv func(string) string) (*Config, error) {
	filePath := ConfigFilePath(configDirPath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found at %s, run \"m720ctl config init\" to create one", filePath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var externalConfig ExternalConfig
	if err := unmarshalYAMLStrict(data, &externalConfig); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
	}
	if err := applyEnvOverrides(&externalConfig.Taxpayer, configDirPath, getenv); err != nil {
		return nil, err
	}
	return NewConfig(externalConfig, configDirPath)
}

// InitConfig creates a new configuration file with a documented template.
// Creates the config directory if it does not exist.
// Returns the path to the created file, or an error if the file already exists.
func InitConfig(configDirPath string) (string, error) {
	filePath := ConfigFilePath(configDirPath)
	if _, err := os.Stat(filePath); err == nil {
		return "", fmt.Errorf("configuration file already exists: %s", filePath)
	}
	if err := os.MkdirAll(configDirPath, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(configTemplate), 0o644); err != nil {
		return "", err
	}
	return filePath, nil
}

// ValidateConfig reads and validates the configuration file from the given config directory.
func ValidateConfig(configDirPath string, getenv func(string) string) error {
	_, err := ReadConfig(configDirPath, getenv)
	return err
}

// *** PRIVATE ***

func newTaxpayer(externalTaxpayer ExternalTaxpayerConfig) (Taxpayer, error) {
	if externalTaxpayer.Year < 1000 || externalTaxpayer.Year > 9999 {
		return Taxpayer{}, fmt.Errorf("taxpayer.year must have 4 digits, got %d", externalTaxpayer.Year)
	}
	nationalID := strings.ToUpper(strings.TrimSpace(externalTaxpayer.NationalID))
	if len(nationalID) != 9 {
		return Taxpayer{}, fmt.Errorf("taxpayer.national_id must have 9 characters, got %q (or set %s)", nationalID, NationalIDEnvVar)
	}
	phone := strings.TrimSpace(externalTaxpayer.Phone)
	if len(phone) != 9 || !isDigits(phone) {
		return Taxpayer{}, fmt.Errorf("taxpayer.phone must have 9 digits, got %q (or set %s)", phone, PhoneEnvVar)
	}
	surnames := strings.TrimSpace(externalTaxpayer.Surnames)
	if surnames == "" {
		return Taxpayer{}, errors.New("taxpayer.surnames is required")
	}
	name := strings.TrimSpace(externalTaxpayer.Name)
	if name == "" {
		return Taxpayer{}, errors.New("taxpayer.name is required")
	}
	ownershipPercentage := decimal.NewFromInt(100)
	if externalTaxpayer.OwnershipPercentage != nil {
		value, err := decimal.NewFromString(strings.TrimSpace(*externalTaxpayer.OwnershipPercentage))
		if err != nil {
			return Taxpayer{}, fmt.Errorf("taxpayer.ownership_percentage: %w", err)
		}
		if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
			return Taxpayer{}, fmt.Errorf("taxpayer.ownership_percentage must be between 0 and 100, got %s", value)
		}
		ownershipPercentage = value
	}
	return Taxpayer{
		Year:                externalTaxpayer.Year,
		NationalID:          nationalID,
		Surnames:            surnames,
		Name:                name,
		Phone:               phone,
		OwnershipPercentage: ownershipPercentage,
	}, nil
}

func newFileConfigs(field string, externalFileConfigs []ExternalFileConfig, configDirPath string) ([]FileConfig, error) {
	fileConfigs := make([]FileConfig, 0, len(externalFileConfigs))
	for i, externalFileConfig := range externalFileConfigs {
		if externalFileConfig.Path == "" {
			return nil, fmt.Errorf("%s[%d].path is required", field, i)
		}
		kind, err := m720broker.ParseKind(externalFileConfig.Broker)
		if err != nil {
			return nil, fmt.Errorf("%s[%d].broker: %w", field, i, err)
		}
		if externalFileConfig.Year < 1000 || externalFileConfig.Year > 9999 {
			return nil, fmt.Errorf("%s[%d].year must have 4 digits, got %d", field, i, externalFileConfig.Year)
		}
		path, err := xos.ResolvePath(configDirPath, externalFileConfig.Path)
		if err != nil {
			return nil, fmt.Errorf("%s[%d].path: %w", field, i, err)
		}
		fileConfigs = append(fileConfigs, FileConfig{
			Path:      path,
			Broker:    kind,
			Presented: externalFileConfig.Presented,
			Year:      externalFileConfig.Year,
		})
	}
	return fileConfigs, nil
}

func newFXConfig(externalFXConfig ExternalFXConfig, configDirPath string) (FXConfig, error) {
	source := FXSource(strings.ToLower(strings.TrimSpace(externalFXConfig.Source)))
	switch source {
	case "", FXSourceFrankfurter:
		return FXConfig{
			Source:  FXSourceFrankfurter,
			BaseURL: externalFXConfig.BaseURL,
		}, nil
	case FXSourceFile:
		if externalFXConfig.RatesFile == "" {
			return FXConfig{}, errors.New("fx.rates_file is required when fx.source is file")
		}
		ratesFile, err := xos.ResolvePath(configDirPath, externalFXConfig.RatesFile)
		if err != nil {
			return FXConfig{}, fmt.Errorf("fx.rates_file: %w", err)
		}
		return FXConfig{
			Source:    FXSourceFile,
			RatesFile: ratesFile,
		}, nil
	default:
		return FXConfig{}, fmt.Errorf("unknown fx.source %q, must be %s or %s", externalFXConfig.Source, FXSourceFrankfurter, FXSourceFile)
	}
}

// applyEnvOverrides sets the taxpayer identifiers from the environment.
//
// The process environment takes precedence over the .env file.
func applyEnvOverrides(externalTaxpayer *ExternalTaxpayerConfig, configDirPath string, getenv func(string) string) error {
	dotenv, err := godotenv.Read(filepath.Join(configDirPath, EnvFileName))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", EnvFileName, err)
		}
		dotenv = nil
	}
	lookup := func(key string) string {
		if getenv != nil {
			if value := getenv(key); value != "" {
				return value
			}
		}
		return dotenv[key]
	}
	if value := lookup(NationalIDEnvVar); value != "" {
		externalTaxpayer.NationalID = value
	}
	if value := lookup(PhoneEnvVar); value != "" {
		externalTaxpayer.Phone = value
	}
	return nil
}

func isDigits(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

// unmarshalYAMLStrict unmarshals the data as YAML with strict field checking.
// If the data length is 0, this is a no-op.
func unmarshalYAMLStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	yamlDecoder := yaml.NewDecoder(bytes.NewReader(data))
	// Reject unknown fields.
	yamlDecoder.KnownFields(true)
	if err := yamlDecoder.Decode(v); err != nil {
		return fmt.Errorf("could not unmarshal as YAML: %w", err)
	}
	return nil
}
