package matrixio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/copyleftdev/tourclimb/internal/tsp"
)

const sampleCSV = `Alpha, 0, 12, 7
Beta, 12, 0, 5

# trailing comment
Gamma, 7, 5, 0
`

func TestReadCSV(t *testing.T) {
	inst, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, inst.Names)
	assert.Equal(t, 3, inst.Distances.N())
	assert.Equal(t, 12.0, inst.Distances.At(0, 1))
	assert.Equal(t, 5.0, inst.Distances.At(2, 1))
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "not a number", input: "A, 0, x\nB, 1, 0\n", wantErr: ErrMalformed},
		{name: "missing name", input: ", 0, 1\nB, 1, 0\n", wantErr: ErrMalformed},
		{name: "ragged", input: "A, 0, 1\nB, 1\n", wantErr: tsp.ErrNonSquare},
		{name: "negative", input: "A, 0, -1\nB, 1, 0\n", wantErr: tsp.ErrNegativeDistance},
		{name: "empty", input: "", wantErr: tsp.ErrEmptyMatrix},
		{name: "bad quoting", input: "A, \"0, 1\nB, 1, 0\n", wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Alpha", 0, 12, 7},
		{"Beta", 12, 0, 5},
		{"Gamma", 7, 5, 0},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	inst, err := ReadXLSX(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, inst.Names)
	assert.Equal(t, 7.0, inst.Distances.At(0, 2))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cities.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	inst, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, inst.Names, 3)

	_, err = Load(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
