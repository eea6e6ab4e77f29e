package report

import (
	"sort"

	"cpseval/domain/scoring"
)

// Table1Columns is the statistical significance projection.
var Table1Columns = []string{
	"Model", "Threshold", "N", "Test_Mean_CPS", "CPS_Improvement_%",
	"t_statistic", "p_interp", "Cohens_d", "Effect_Size", "Significance",
}

// Table2Columns is the T-CPS descriptive projection.
var Table2Columns = []string{
	"Model", "Threshold", "Test_T-CPS", "T-CPS_Improvement_%", "CV", "Interpretation",
}

// Table is a header plus string cells, ready for CSV, XLSX or Markdown.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Full returns every row with all Columns.
func Full(rows []Row) Table {
	return Project(rows, Columns)
}

// Table1 projects rows onto Table1Columns.
func Table1(rows []Row) Table {
	return Project(rows, Table1Columns)
}

// Table2 projects rows onto Table2Columns.
func Table2(rows []Row) Table {
	return Project(rows, Table2Columns)
}

// Project selects columns (by name, from Columns) out of each row.
// Unknown column names yield empty cells.
func Project(rows []Row, columns []string) Table {
	return project(rows, columns, formatFloat)
}

func project(rows []Row, columns []string, num func(float64) string) Table {
	index := make(map[string]int, len(Columns))
	for i, c := range Columns {
		index[c] = i
	}

	out := Table{Columns: append([]string(nil), columns...)}
	for _, row := range rows {
		values := row.cells(num)
		cells := make([]string, len(columns))
		for i, c := range columns {
			if j, ok := index[c]; ok {
				cells[i] = values[j]
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// Pivot holds T-CPS values by threshold (rows) and model (columns).
type Pivot struct {
	Thresholds []scoring.Threshold
	Models     []string
	// Values[i][j] is the T-CPS of Models[j] at Thresholds[i]; OK is false
	// where the model has no summarised group at that threshold.
	Values [][]PivotCell
}

// PivotCell is one entry of a Pivot.
type PivotCell struct {
	TCPS float64
	OK   bool
}

// SummaryPivot arranges every row with a T-CPS summary into a threshold
// by model grid. No baseline comparison is needed.
func SummaryPivot(rows []Row) Pivot {
	thresholdSet := make(map[int64]scoring.Threshold)
	modelSet := make(map[string]bool)
	cells := make(map[int64]map[string]float64)

	for _, row := range rows {
		if !row.Described() {
			continue
		}
		key := row.Threshold.Key()
		thresholdSet[key] = row.Threshold
		modelSet[row.Model] = true
		if cells[key] == nil {
			cells[key] = make(map[string]float64)
		}
		cells[key][row.Model] = row.TestTCPS
	}

	p := Pivot{}
	for _, t := range thresholdSet {
		p.Thresholds = append(p.Thresholds, t)
	}
	sort.Slice(p.Thresholds, func(i, j int) bool { return p.Thresholds[i] < p.Thresholds[j] })
	for m := range modelSet {
		p.Models = append(p.Models, m)
	}
	sort.Strings(p.Models)

	p.Values = make([][]PivotCell, len(p.Thresholds))
	for i, t := range p.Thresholds {
		p.Values[i] = make([]PivotCell, len(p.Models))
		for j, m := range p.Models {
			v, ok := cells[t.Key()][m]
			p.Values[i][j] = PivotCell{TCPS: v, OK: ok}
		}
	}
	return p
}

// Table renders the pivot with a leading Threshold column.
func (p Pivot) Table() Table {
	out := Table{Columns: append([]string{"Threshold"}, p.Models...)}
	for i, t := range p.Thresholds {
		cells := make([]string, 0, len(p.Models)+1)
		cells = append(cells, t.String())
		for _, c := range p.Values[i] {
			if c.OK {
				cells = append(cells, formatFloat(c.TCPS))
			} else {
				cells = append(cells, "")
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}
