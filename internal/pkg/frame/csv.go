// Copyright 2026 Peter Edge
//
// All rights reserved.

package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// utf8BOM is the byte order mark some broker exports prepend to the file.
const utf8BOM = "\ufeff"

// ReadCSVFile reads a delimited text file with a header row into a Frame.
func ReadCSVFile(filePath string) (_ *Frame, retErr error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = errors.Join(retErr, file.Close())
	}()
	frame, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return frame, nil
}

// ReadCSV reads comma-separated rows with a header row into a Frame.
//
// Every column is read as text. Empty cells are null. Blank header names are
// replaced by "column_<n>" (1-based) and repeated header names get a
// "_duplicated_<k>" suffix so that every column can be addressed by name.
// Rows shorter than the header are padded with null cells.
func ReadCSV(reader io.Reader) (*Frame, error) {
	csvReader := csv.NewReader(reader)
	// Allow variable number of fields per record, checked against the header below.
	csvReader.FieldsPerRecord = -1
	// Don't treat leading spaces as significant.
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	names := headerNames(header)
	cells := make([][]Cell, len(names))
	line := 1
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line++
		if len(record) > len(names) {
			return nil, fmt.Errorf("record %d has %d fields, header has %d", line, len(record), len(names))
		}
		for i := range names {
			cell := NullCell()
			if i < len(record) && record[i] != "" {
				cell = TextCell(record[i])
			}
			cells[i] = append(cells[i], cell)
		}
	}
	columns := make([]*Column, len(names))
	for i, name := range names {
		columns[i] = NewTextColumn(name, cells[i]...)
	}
	return New(columns...)
}

// *** PRIVATE ***

// headerNames cleans the header row into unique, non-empty column names.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if count, ok := seen[name]; ok {
			seen[name] = count + 1
			name = fmt.Sprintf("%s_duplicated_%d", name, count-1)
		} else {
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}
