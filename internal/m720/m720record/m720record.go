// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package m720record encodes positions as the fixed-width records of the
// Modelo 720 declaration of foreign assets.
//
// A declaration is one header record followed by one record per position.
// Each position record is written as two lines. All numeric fields are
// zero-padded integers of the value multiplied by 100 and truncated toward
// zero. Text fields are folded to ASCII and space-padded.
//
//	header      (180 columns): 1720 | year | id | name | T phone | name | 7200000000000 | count | total
//	position/1  (229 columns): 2720 | year | id | id | name | V1 | broker country | ISIN | product
//	position/2   (68 columns): ISIN country | EUR value | operation | quantity | ownership
package m720record

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bufdev/m720ctl/internal/m720/m720aggregate"
	"github.com/bufdev/m720ctl/internal/m720/m720config"
	"github.com/bufdev/m720ctl/internal/m720/m720position"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// HeaderLength is the length of the header line.
	HeaderLength = 180
	// PositionLine1Length is the length of the first line of a position record.
	PositionLine1Length = 229
	// PositionLine2Length is the length of the second line of a position record.
	PositionLine2Length = 68
	// EURValueOffset is the zero-based offset of the EUR value in the second line of a position record.
	EURValueOffset = 20

	nameWidth    = 40
	productWidth = 40
	isinLength   = 12
)

// Operation is the operation code of a position record.
type Operation string

const (
	// OperationAdd declares a position for the first time in the declaration.
	OperationAdd Operation = "A"
	// OperationModify re-declares a position already declared in a previous year.
	OperationModify Operation = "M"
	// OperationCarried marks a continuing (carried-over) position. Continuing
	// positions are encoded with OperationModify.
	OperationCarried Operation = "C"
)

// EncodingError is returned when a value cannot be represented in its field.
//
// No partial output is produced when it is returned.
type EncodingError struct {
	// Field is the name of the field that failed.
	Field string
	// ISIN is the ISIN of the position, empty for header fields.
	ISIN string
	// Reason describes the problem.
	Reason string
}

// Error implements error.
func (e *EncodingError) Error() string {
	if e.ISIN == "" {
		return fmt.Sprintf("cannot encode %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("cannot encode %s of %s: %s", e.Field, e.ISIN, e.Reason)
}

// Encoder encodes declarations for a taxpayer.
type Encoder interface {
	// Encode returns the header followed by an OperationAdd record per position, in slice order.
	Encode(positions []*m720position.Position) ([]string, error)
	// EncodeResult returns the header followed by an OperationModify record per
	// continuing position and an OperationAdd record per current position.
	//
	// The header declares Result.DeclaredCount records and the EUR total of the
	// current positions.
	EncodeResult(result *m720aggregate.Result) ([]string, error)
}

// NewEncoder returns a new Encoder for the taxpayer.
func NewEncoder(taxpayer m720config.Taxpayer) Encoder {
	return &encoder{
		taxpayer: taxpayer,
	}
}

// Marshal joins the lines with "\n".
func Marshal(lines []string) []byte {
	return []byte(strings.Join(lines, "\n"))
}

// FoldASCII removes diacritics and replaces any remaining non-ASCII or
// control character with a space, so that every rune is one byte.
func FoldASCII(s string) string {
	folded, _, err := transform.String(asciiTransformer(), s)
	if err != nil {
		folded = s
	}
	return strings.Map(
		func(r rune) rune {
			if r > unicode.MaxASCII || unicode.IsControl(r) {
				return ' '
			}
			return r
		},
		folded,
	)
}

// *** PRIVATE ***

type encoder struct {
	taxpayer m720config.Taxpayer
}

func (e *encoder) Encode(positions []*m720position.Position) ([]string, error) {
	return e.encode(nil, positions, len(positions))
}

func (e *encoder) EncodeResult(result *m720aggregate.Result) ([]string, error) {
	return e.encode(result.Continuing, result.Current, result.DeclaredCount())
}

func (e *encoder) encode(modified []*m720position.Position, added []*m720position.Position, declaredCount int) ([]string, error) {
	if err := e.validateTaxpayer(); err != nil {
		return nil, err
	}
	// Step 1: compute the EUR total of the added positions.
	total := decimal.Zero
	for _, position := range added {
		if !position.EURValue.Valid {
			return nil, &EncodingError{Field: "eur_value", ISIN: position.ISIN, Reason: "value is missing"}
		}
		total = total.Add(position.EURValue.Decimal)
	}
	header, err := e.header(declaredCount, total)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, 1+2*(len(modified)+len(added)))
	lines = append(lines, header)
	// Step 2: continuing positions precede the new declarations.
	for _, position := range modified {
		line1, line2, err := e.position(position, OperationModify)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line1, line2)
	}
	for _, position := range added {
		line1, line2, err := e.position(position, OperationAdd)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line1, line2)
	}
	return lines, nil
}

func (e *encoder) header(declaredCount int, total decimal.Decimal) (string, error) {
	count, err := zeroPadded("declared_count", "", decimal.NewFromInt(int64(declaredCount)), 22)
	if err != nil {
		return "", err
	}
	totalField, err := scaled("total_eur_value", "", total, 17)
	if err != nil {
		return "", err
	}
	name := text(e.taxpayer.FullName(), nameWidth)
	var builder strings.Builder
	builder.WriteString("1720")
	fmt.Fprintf(&builder, "%04d", e.taxpayer.Year)
	builder.WriteString(e.taxpayer.NationalID)
	builder.WriteString(name)
	builder.WriteString("T")
	builder.WriteString(e.taxpayer.Phone)
	builder.WriteString(name)
	builder.WriteString("7200000000000")
	builder.WriteString(spaces(2))
	builder.WriteString(count)
	builder.WriteString(spaces(1))
	builder.WriteString(totalField)
	builder.WriteString(spaces(1))
	builder.WriteString(zeros(17))
	return builder.String(), nil
}

func (e *encoder) position(position *m720position.Position, operation Operation) (string, string, error) {
	if len(position.ISIN) != isinLength || FoldASCII(position.ISIN) != position.ISIN {
		return "", "", &EncodingError{Field: "isin", ISIN: position.ISIN, Reason: fmt.Sprintf("must be %d ASCII characters", isinLength)}
	}
	if len(position.BrokerCountryID) != 2 {
		return "", "", &EncodingError{Field: "broker_country_id", ISIN: position.ISIN, Reason: "must be 2 characters"}
	}
	if !position.EURValue.Valid {
		return "", "", &EncodingError{Field: "eur_value", ISIN: position.ISIN, Reason: "value is missing"}
	}
	eurValue, err := scaled("eur_value", position.ISIN, position.EURValue.Decimal, 14)
	if err != nil {
		return "", "", err
	}
	if !position.Amount.Valid {
		return "", "", &EncodingError{Field: "amount", ISIN: position.ISIN, Reason: "value is missing"}
	}
	amount, err := scaled("amount", position.ISIN, position.Amount.Decimal, 12)
	if err != nil {
		return "", "", err
	}
	ownership, err := scaled("ownership_percentage", position.ISIN, e.taxpayer.OwnershipPercentage, 5)
	if err != nil {
		return "", "", err
	}
	var line1 strings.Builder
	line1.WriteString("2720")
	fmt.Fprintf(&line1, "%04d", e.taxpayer.Year)
	line1.WriteString(e.taxpayer.NationalID)
	line1.WriteString(e.taxpayer.NationalID)
	line1.WriteString(spaces(9))
	line1.WriteString(text(e.taxpayer.FullName(), nameWidth))
	line1.WriteString("1")
	line1.WriteString(spaces(25))
	line1.WriteString("V1")
	line1.WriteString(spaces(25))
	line1.WriteString(position.BrokerCountryID)
	line1.WriteString("1")
	line1.WriteString(position.ISIN)
	line1.WriteString(spaces(46))
	line1.WriteString(text(position.Product, productWidth))

	var line2 strings.Builder
	line2.WriteString(position.ISINCountry())
	line2.WriteString(zeros(8))
	line2.WriteString("A")
	line2.WriteString(zeros(8))
	line2.WriteString(spaces(1))
	line2.WriteString(eurValue)
	line2.WriteString(spaces(1))
	line2.WriteString(zeros(14))
	line2.WriteString(string(operation))
	line2.WriteString(amount)
	line2.WriteString(spaces(1))
	line2.WriteString(ownership)
	return line1.String(), line2.String(), nil
}

func (e *encoder) validateTaxpayer() error {
	if e.taxpayer.Year < 1000 || e.taxpayer.Year > 9999 {
		return &EncodingError{Field: "year", Reason: "must have 4 digits"}
	}
	if len(e.taxpayer.NationalID) != 9 || FoldASCII(e.taxpayer.NationalID) != e.taxpayer.NationalID {
		return &EncodingError{Field: "national_id", Reason: "must be 9 ASCII characters"}
	}
	if len(e.taxpayer.Phone) != 9 || strings.Trim(e.taxpayer.Phone, "0123456789") != "" {
		return &EncodingError{Field: "phone", Reason: "must be 9 digits"}
	}
	return nil
}

// scaled returns value multiplied by 100, truncated toward zero, zero-padded to width.
func scaled(field string, isin string, value decimal.Decimal, width int) (string, error) {
	return zeroPadded(field, isin, value.Mul(decimal.NewFromInt(100)).Truncate(0), width)
}

func zeroPadded(field string, isin string, value decimal.Decimal, width int) (string, error) {
	if value.IsNegative() {
		return "", &EncodingError{Field: field, ISIN: isin, Reason: fmt.Sprintf("negative value %s", value)}
	}
	digits := value.BigInt().String()
	if len(digits) > width {
		return "", &EncodingError{Field: field, ISIN: isin, Reason: fmt.Sprintf("value %s does not fit in %d digits", value, width)}
	}
	return zeros(width-len(digits)) + digits, nil
}

// text folds s to ASCII, then truncates or space-pads it to width.
func text(s string, width int) string {
	s = FoldASCII(s)
	if len(s) > width {
		return s[:width]
	}
	return s + spaces(width-len(s))
}

func spaces(n int) string {
	return strings.Repeat(" ", n)
}

func zeros(n int) string {
	return strings.Repeat("0", n)
}

func asciiTransformer() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
