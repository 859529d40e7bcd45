package excel

// RawRowData represents a single row keyed by header name
type RawRowData map[string]string

// ExcelData holds a parsed sheet or CSV file
type ExcelData struct {
	Headers []string
	Rows    []RawRowData
}

// PairedColumns are two numeric columns read row by row, so X[i] and Y[i]
// always come from the same source row.
type PairedColumns struct {
	XName   string
	YName   string
	X       []float64
	Y       []float64
	Skipped int // rows dropped because either cell was empty or not numeric
}
