package excel

import (
	"fmt"
	"log"
	"math"
	"strings"

	"cpseval/domain/scoring"
	"cpseval/internal/analysis"
	"cpseval/internal/errors"
)

// ReadPivot reads a precomputed CPS table for one model: threshold labels
// in the first column and one CPS column per question. Blank and NaN cells
// are dropped from their row, so positions shift left past a gap.
func ReadPivot(path, model string) ([]analysis.ScoreSeries, error) {
	rows, err := NewDataReader(path).ReadRows()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s must have a header row and at least one threshold row", path))
	}

	var series []analysis.ScoreSeries
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		line := i + 2
		threshold, err := scoring.ParseThreshold(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("%s line %d: %v", path, line, err))
		}

		s := analysis.ScoreSeries{Model: model, Threshold: threshold}
		for j, cell := range row[1:] {
			v, err := ParseCell(cell)
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("%s line %d column %d: %v", path, line, j+2, err))
			}
			if !math.IsNaN(v) {
				s.CPS = append(s.CPS, v)
			}
		}
		log.Printf("[DataReader] %s @ %s: %d valid scores", model, threshold, len(s.CPS))
		series = append(series, s)
	}
	return series, nil
}
