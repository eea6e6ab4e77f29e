package excel

// ExcelConfig holds configuration for spreadsheet data sources
type ExcelConfig struct {
	// SheetName is read first; the first sheet is used when it is absent.
	SheetName string `json:"sheet_name"`
	// QuestionIDColumns are the header names accepted for question ids,
	// matched case-insensitively.
	QuestionIDColumns []string `json:"question_id_columns"`
	// ModelColumn and ThresholdColumn are read from long-format files that
	// carry several groups in one sheet.
	ModelColumn     string `json:"model_column"`
	ThresholdColumn string `json:"threshold_column"`
}

// DefaultExcelConfig returns sensible defaults for Excel processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		SheetName:         "Sheet1",
		QuestionIDColumns: []string{"Question_ID", "QuestionID", "question_id"},
		ModelColumn:       "Model",
		ThresholdColumn:   "Threshold",
	}
}
