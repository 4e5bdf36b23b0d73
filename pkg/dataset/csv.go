package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

var missingTokens = []string{"", "na", "nan", "null", "none"}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string, numeric []string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	frame, err := ReadCSV(file, numeric)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return frame, nil
}

// ReadCSV reads a CSV table with a header row. Columns named in numeric are
// parsed as numbers, everything else stays text. Empty, NA, NaN, null and
// None cells are missing.
func ReadCSV(r io.Reader, numeric []string) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV has no header row")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	isNumeric := make([]bool, len(header))
	for i, name := range header {
		isNumeric[i] = slices.Contains(numeric, name)
	}

	cols := make([][]Value, len(header))
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		for i, cell := range record {
			v, err := parseCell(cell, isNumeric[i])
			if err != nil {
				return nil, &SchemaError{Column: header[i], Reason: fmt.Sprintf("line %d: %v", line, err)}
			}
			cols[i] = append(cols[i], v)
		}
	}

	return NewFrame(header, cols)
}

func parseCell(cell string, numeric bool) (Value, error) {
	cell = strings.TrimSpace(cell)
	if slices.Contains(missingTokens, strings.ToLower(cell)) {
		return Missing(), nil
	}
	if !numeric {
		return Text(cell), nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return Value{}, fmt.Errorf("cannot parse %q as a number", cell)
	}
	return Number(f), nil
}
