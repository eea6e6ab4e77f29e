package excel

// RawRowData represents a row of raw spreadsheet data as string key-value pairs
type RawRowData map[string]string

// ExcelData represents the complete spreadsheet dataset
type ExcelData struct {
	Source  string       // File the data was read from
	Headers []string     // Column headers, in file order
	Rows    []RawRowData // Data rows
}

// Column returns the header matching name case-insensitively.
func (d *ExcelData) Column(names ...string) (string, bool) {
	for _, name := range names {
		for _, h := range d.Headers {
			if equalFold(h, name) {
				return h, true
			}
		}
	}
	return "", false
}
