// Package matrixio reads named distance matrices. Each row holds a city
// name followed by its distances to every city, in city-id order:
//
//	Alpha, 0, 12, 7
//	Beta, 12, 0, 5
//	Gamma, 7, 5, 0
//
// Rows come from CSV files or from the first sheet of an .xlsx workbook.
package matrixio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/copyleftdev/tourclimb/internal/tsp"
)

// ErrMalformed is returned for rows that cannot be parsed.
var ErrMalformed = errors.New("matrixio: malformed distance matrix")

// Instance is a parsed distance matrix with the display name of each city.
type Instance struct {
	Names     []string
	Distances *tsp.Distances
}

// Load reads path, choosing the format from its extension.
func Load(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	default:
		return ReadCSV(f)
	}
}

// ReadCSV parses comma-separated rows.
func ReadCSV(r io.Reader) (*Instance, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Parse(records)
}

// ReadXLSX parses the first sheet of an Excel workbook.
func ReadXLSX(r io.Reader) (*Instance, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformed)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrMalformed, sheets[0], err)
	}
	return Parse(rows)
}

// Parse converts name-prefixed records into an Instance. Blank records
// are skipped.
func Parse(records [][]string) (*Instance, error) {
	var (
		names []string
		rows  [][]float64
	)
	for i, rec := range records {
		if isBlank(rec) {
			continue
		}
		name := strings.TrimSpace(rec[0])
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: missing city name", ErrMalformed, i+1)
		}

		row := make([]float64, 0, len(rec)-1)
		for j, field := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, column %d: %q is not a number", ErrMalformed, i+1, j+2, field)
			}
			row = append(row, v)
		}
		names = append(names, name)
		rows = append(rows, row)
	}

	d, err := tsp.NewDistances(rows)
	if err != nil {
		return nil, err
	}
	return &Instance{Names: names, Distances: d}, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
