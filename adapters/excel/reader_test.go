package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"splinemi/internal"
	"splinemi/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadColumnsCSV(t *testing.T) {
	path := writeFile(t, "samples.csv", "id, height ,weight\n1,1.5,60\n2,,70\n3,1.7,abc\n4,1.8,80\n")

	cols, err := NewDataReader(path).WithLogger(internal.Discard()).ReadColumns("height", "weight")
	require.NoError(t, err)

	assert.Equal(t, []float64{1.5, 1.8}, cols.X)
	assert.Equal(t, []float64{60, 80}, cols.Y)
	assert.Equal(t, 2, cols.Skipped)
}

func TestReadColumnsMissingColumn(t *testing.T) {
	path := writeFile(t, "samples.csv", "a,b\n1,2\n")

	_, err := NewDataReader(path).WithLogger(internal.Discard()).ReadColumns("a", "c")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), `"c"`)
}

func TestReadColumnsNoNumericRows(t *testing.T) {
	path := writeFile(t, "samples.csv", "a,b\nx,y\n")

	_, err := NewDataReader(path).WithLogger(internal.Discard()).ReadColumns("a", "b")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestReadDataMissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.xlsx")).ReadData()
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestReadColumnsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"x", "y"},
		{1.25, 10},
		{2.5, 20},
		{3.75, 30},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cols, err := NewDataReader(path).WithLogger(internal.Discard()).ReadColumns("x", "y")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.25, 2.5, 3.75}, cols.X)
	assert.Equal(t, []float64{10, 20, 30}, cols.Y)
	assert.Zero(t, cols.Skipped)
}
