package excel

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"cpseval/domain/scoring"
	"cpseval/internal/errors"
	"cpseval/internal/schema"
)

// GroupHint fixes the model and threshold of every row when a file holds a
// single group. Zero fields are read from the Model / Threshold columns.
type GroupHint struct {
	Model     string
	Threshold *scoring.Threshold
}

// ToMetricRecords maps spreadsheet rows onto metric records through the
// schema's column aliases. Schema metrics without a column are returned in
// missing and read as absent (NaN). Question ids come from a Question_ID column when
// present, otherwise from the 1-based row index.
func ToMetricRecords(data *ExcelData, s *schema.Schema, hint GroupHint, config ExcelConfig) ([]scoring.MetricRecord, []string, error) {
	mapping, missing, err := s.ResolveColumns(data.Headers)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "resolving columns of %s", data.Source)
	}
	if len(missing) > 0 {
		log.Printf("[DataReader] %s: metrics not found: %s", data.Source, strings.Join(missing, ", "))
	}

	idColumn, hasID := data.Column(config.QuestionIDColumns...)
	modelColumn, hasModel := data.Column(config.ModelColumn)
	thresholdColumn, hasThreshold := data.Column(config.ThresholdColumn)

	if hint.Model == "" && !hasModel {
		return nil, nil, errors.InvalidInput(fmt.Sprintf("%s: no %q column and no model given", data.Source, config.ModelColumn))
	}
	if hint.Threshold == nil && !hasThreshold {
		return nil, nil, errors.InvalidInput(fmt.Sprintf("%s: no %q column and no threshold given", data.Source, config.ThresholdColumn))
	}

	records := make([]scoring.MetricRecord, 0, len(data.Rows))
	for i, row := range data.Rows {
		line := i + 2 // header is line 1

		rec := scoring.MetricRecord{
			Model:      hint.Model,
			QuestionID: i + 1,
			Values:     make(map[string]float64, len(mapping)),
		}
		if rec.Model == "" {
			rec.Model = row[modelColumn]
		}
		if hint.Threshold != nil {
			rec.Threshold = *hint.Threshold
		} else {
			t, err := scoring.ParseThreshold(row[thresholdColumn])
			if err != nil {
				return nil, nil, errors.InvalidInput(fmt.Sprintf("%s line %d: %v", data.Source, line, err))
			}
			rec.Threshold = t
		}
		if hasID && row[idColumn] != "" {
			id, err := parseQuestionID(row[idColumn])
			if err != nil {
				return nil, nil, errors.InvalidInput(fmt.Sprintf("%s line %d: question id %q: %v", data.Source, line, row[idColumn], err))
			}
			rec.QuestionID = id
		}

		for header, metric := range mapping {
			v, err := ParseCell(row[header])
			if err != nil {
				return nil, nil, errors.InvalidInput(fmt.Sprintf("%s line %d column %q: %v", data.Source, line, header, err))
			}
			rec.Values[metric] = v
		}
		records = append(records, rec)
	}
	return records, missing, nil
}

// ParseCell reads a numeric cell. Blank, NaN and NA cells are NaN.
func ParseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	switch strings.ToLower(cell) {
	case "", "nan", "na", "n/a", "null", "none":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	return v, nil
}

// parseQuestionID accepts integers, including Excel's "12.0" rendering.
func parseQuestionID(cell string) (int, error) {
	if id, err := strconv.Atoi(cell); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}
