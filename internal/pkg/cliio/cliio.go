// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cliio writes command output as aligned tables, CSV, or JSON lines.
package cliio

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Format is an output format.
type Format string

const (
	// FormatTable is an aligned, human-readable table.
	FormatTable Format = "table"
	// FormatCSV is a CSV document with a header row.
	FormatCSV Format = "csv"
	// FormatJSON is one JSON object per line.
	FormatJSON Format = "json"
)

// AllFormats returns all formats, the default first.
func AllFormats() []Format {
	return []Format{FormatTable, FormatCSV, FormatJSON}
}

// ParseFormat parses a string into a Format.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, format := range AllFormats() {
		if string(format) == s {
			return format, nil
		}
	}
	names := make([]string, 0, len(AllFormats()))
	for _, format := range AllFormats() {
		names = append(names, string(format))
	}
	return "", fmt.Errorf("unknown format %q, must be one of: %s", s, strings.Join(names, ", "))
}

// Table is tabular output with an optional totals row.
type Table struct {
	Headers []string
	Rows    [][]string
	// Totals is written after the rows if non-empty.
	Totals []string
}

// Write writes the table in format. For FormatJSON, objects are written instead
// of the table, one per line, and the totals row is omitted.
func Write[O any](writer io.Writer, format Format, table Table, objects []O) error {
	switch format {
	case FormatTable:
		return WriteTable(writer, table)
	case FormatCSV:
		return WriteCSV(writer, table)
	case FormatJSON:
		return WriteJSONLines(writer, objects...)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteTable writes the table with tabwriter-aligned columns.
//
// The totals row is separated from the data rows by a blank row so that the
// columns of the totals stay aligned with the data.
func WriteTable(writer io.Writer, table Table) error {
	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	lines := make([][]string, 0, len(table.Rows)+3)
	lines = append(lines, table.Headers)
	lines = append(lines, table.Rows...)
	if len(table.Totals) > 0 {
		lines = append(lines, make([]string, len(table.Headers)), table.Totals)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(tw, strings.Join(line, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteCSV writes the headers, rows, and totals as CSV records.
func WriteCSV(writer io.Writer, table Table) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(table.Headers); err != nil {
		return err
	}
	if err := csvWriter.WriteAll(table.Rows); err != nil {
		return err
	}
	if len(table.Totals) > 0 {
		if err := csvWriter.Write(table.Totals); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteJSONLines writes each object as JSON followed by a newline.
func WriteJSONLines[O any](writer io.Writer, objects ...O) error {
	encoder := json.NewEncoder(writer)
	for _, object := range objects {
		if err := encoder.Encode(object); err != nil {
			return err
		}
	}
	return nil
}

// ForWriteFile calls f with filePath opened for writing, truncating it if it exists.
//
// If filePath is empty or "-", f is called with stdout.
func ForWriteFile(filePath string, stdout io.Writer, f func(io.Writer) error) (retErr error) {
	if filePath == "" || filePath == "-" {
		return f(stdout)
	}
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer func() {
		retErr = errors.Join(retErr, file.Close())
	}()
	return f(file)
}
