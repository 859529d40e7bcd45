package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"splinemi/internal"
	"splinemi/internal/errors"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		logger:   internal.DefaultLogger.WithField("reader", fileType),
	}
}

// WithLogger replaces the reader's logger
func (r *DataReader) WithLogger(logger *internal.Logger) *DataReader {
	r.logger = logger
	return r
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("reading %s file %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
}

// ReadColumns reads two named numeric columns as paired samples. Rows where
// either cell is missing or unparsable are skipped as a pair.
func (r *DataReader) ReadColumns(xName, yName string) (*PairedColumns, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	for _, name := range []string{xName, yName} {
		if !hasHeader(data.Headers, name) {
			return nil, errors.InvalidInput(fmt.Sprintf("column %q not found; available: %s", name, strings.Join(data.Headers, ", ")))
		}
	}

	cols := &PairedColumns{XName: xName, YName: yName}
	for _, row := range data.Rows {
		x, errX := parseCell(row[xName])
		y, errY := parseCell(row[yName])
		if errX != nil || errY != nil {
			cols.Skipped++
			continue
		}
		cols.X = append(cols.X, x)
		cols.Y = append(cols.Y, y)
	}

	if cols.Skipped > 0 {
		r.logger.Warn("skipped %d of %d rows without numeric %s/%s values", cols.Skipped, len(data.Rows), xName, yName)
	}
	if len(cols.X) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("no rows with numeric values in both %q and %q", xName, yName))
	}
	return cols, nil
}

// readExcelData reads the first sheet of a workbook into structured format
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to open Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), fmt.Sprintf("failed to read sheet %s", sheets[0]))
	}
	r.logger.Debug("sheet %s read in %s (%d rows)", sheets[0], time.Since(startTime), len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("Excel file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	startTime := time.Now()
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to read CSV file")
	}
	r.logger.Debug("CSV file read in %s (%d rows)", time.Since(startTime), len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("CSV file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Debug("%s file processed (%d columns, %d rows)", strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

func hasHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}

func parseCell(cell string) (float64, error) {
	if cell == "" {
		return 0, fmt.Errorf("empty cell")
	}
	return strconv.ParseFloat(cell, 64)
}
