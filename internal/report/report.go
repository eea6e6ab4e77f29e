// Package report assembles per-group engine results into the flat report
// table and its projections. It performs no statistics of its own beyond
// labelling and cross-group selection over already-computed rows.
package report

import (
	"sort"
	"strconv"
	"time"

	"cpseval/domain/core"
	"cpseval/domain/scoring"
)

// Columns is the fixed column order of the report table.
var Columns = []string{
	"Model", "Threshold", "N", "Test_Mean_CPS", "Test_T-CPS", "CV",
	"CPS_Improvement_%", "T-CPS_Improvement_%", "SE", "t_statistic", "df",
	"p_value", "p_interp", "Cohens_d", "Interpretation", "Effect_Size",
	"CI_Lower", "CI_Upper", "Significant", "Significance",
}

// NotAvailable fills text cells of groups that could not be compared.
const NotAvailable = "n/a"

// Row is one (model, threshold) line of the report. Rows for groups that
// were not compared against a baseline carry a Status other than ok,
// NotAvailable labels and zero comparison numerics; their N, mean CPS,
// T-CPS and CV are still filled when the group has a T-CPS summary.
type Row struct {
	Model              string              `json:"model" db:"model"`
	Threshold          scoring.Threshold   `json:"threshold" db:"threshold"`
	Status             scoring.GroupStatus `json:"status" db:"status"`
	Error              string              `json:"error,omitempty" db:"error"`
	N                  int                 `json:"n" db:"n"`
	TestMeanCPS        float64             `json:"test_mean_cps" db:"test_mean_cps"`
	TestTCPS           float64             `json:"test_tcps" db:"test_tcps"`
	CV                 float64             `json:"cv" db:"cv"`
	CPSImprovementPct  float64             `json:"cps_improvement_pct" db:"cps_improvement_pct"`
	TCPSImprovementPct float64             `json:"tcps_improvement_pct" db:"tcps_improvement_pct"`
	SE                 float64             `json:"se" db:"se"`
	TStatistic         float64             `json:"t_statistic" db:"t_statistic"`
	DF                 int                 `json:"df" db:"df"`
	PValue             float64             `json:"p_value" db:"p_value"`
	PInterp            string              `json:"p_interp" db:"p_interp"`
	CohensD            float64             `json:"cohens_d" db:"cohens_d"`
	Interpretation     string              `json:"interpretation" db:"interpretation"`
	EffectSize         string              `json:"effect_size" db:"effect_size"`
	CILower            float64             `json:"ci_lower" db:"ci_lower"`
	CIUpper            float64             `json:"ci_upper" db:"ci_upper"`
	Significant        bool                `json:"significant" db:"significant"`
	Significance       string              `json:"significance" db:"significance"`
}

// Scored reports whether the row carries computed statistics.
func (r Row) Scored() bool { return r.Status.Scored() }

// Described reports whether the row carries a T-CPS summary.
func (r Row) Described() bool { return r.N > 0 }

// Values returns the row's cells in Columns order. Comparison cells of
// unscored rows are empty.
func (r Row) Values() []string {
	return r.cells(formatFloat)
}

func (r Row) cells(num func(float64) string) []string {
	if !r.Scored() {
		out := make([]string, len(Columns))
		out[0] = r.Model
		out[1] = r.Threshold.String()
		if r.Described() {
			out[2] = strconv.Itoa(r.N)
			out[3] = num(r.TestMeanCPS)
			out[4] = num(r.TestTCPS)
			out[5] = num(r.CV)
		}
		for _, i := range []int{12, 14, 15, 19} {
			out[i] = NotAvailable
		}
		return out
	}
	return []string{
		r.Model,
		r.Threshold.String(),
		strconv.Itoa(r.N),
		num(r.TestMeanCPS),
		num(r.TestTCPS),
		num(r.CV),
		num(r.CPSImprovementPct),
		num(r.TCPSImprovementPct),
		num(r.SE),
		num(r.TStatistic),
		strconv.Itoa(r.DF),
		num(r.PValue),
		r.PInterp,
		num(r.CohensD),
		r.Interpretation,
		r.EffectSize,
		num(r.CILower),
		num(r.CIUpper),
		strconv.FormatBool(r.Significant),
		r.Significance,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Interpretation labels a T-CPS improvement percentage.
func Interpretation(tcpsImprovementPct float64) string {
	switch {
	case tcpsImprovementPct >= 3.0:
		return "Large improvement"
	case tcpsImprovementPct >= 1.5:
		return "Moderate improvement"
	case tcpsImprovementPct >= 0.5:
		return "Small improvement"
	default:
		return "Minimal change"
	}
}

// Meta identifies the run a report was built from.
type Meta struct {
	RunID       core.RunID       `json:"run_id"`
	CreatedAt   time.Time        `json:"created_at"`
	SchemaHash  core.SchemaHash  `json:"schema_hash"`
	DatasetHash core.DatasetHash `json:"dataset_hash"`
	Baseline    string           `json:"baseline"`
	Weighting   string           `json:"weighting"`
	Alignment   string           `json:"alignment"`
	Alpha       float64          `json:"alpha"`
	Beta        float64          `json:"beta"`
}

// Report is the assembled output of one analysis run.
type Report struct {
	Meta
	Rows     []Row             `json:"rows"`
	Warnings []scoring.Warning `json:"warnings,omitempty"`
}

// Build turns group results into report rows. Baseline groups are not
// reported against themselves and are left out. Rows are ordered by model
// then threshold. groups is not modified.
func Build(meta Meta, groups []scoring.GroupResult, warnings []scoring.Warning) *Report {
	rows := make([]Row, 0, len(groups))
	for _, g := range groups {
		if g.Status == scoring.StatusBaseline {
			continue
		}
		rows = append(rows, NewRow(g))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Model != rows[j].Model {
			return rows[i].Model < rows[j].Model
		}
		return rows[i].Threshold < rows[j].Threshold
	})

	return &Report{
		Meta:     meta,
		Rows:     rows,
		Warnings: append([]scoring.Warning(nil), warnings...),
	}
}

// NewRow projects one group result onto a report row.
func NewRow(g scoring.GroupResult) Row {
	row := Row{
		Model:     g.Key.Model,
		Threshold: g.Key.Threshold,
		Status:    g.Status,
		Error:     g.Error,
	}
	if g.Summary != nil {
		row.N = g.Summary.N
		row.TestMeanCPS = g.Summary.MeanCPS
		row.TestTCPS = g.Summary.TCPS
		row.CV = g.Summary.CV
	}
	if !g.Status.Scored() || g.Summary == nil || g.Significance == nil {
		if row.Status == scoring.StatusOK {
			row.Status = scoring.StatusInsufficientData
		}
		row.PInterp = NotAvailable
		row.Interpretation = NotAvailable
		row.EffectSize = NotAvailable
		row.Significance = NotAvailable
		return row
	}

	sig := g.Significance
	row.N = sig.N
	row.TestMeanCPS = sig.TestMean
	row.CPSImprovementPct = sig.ImprovementPct
	row.TCPSImprovementPct = g.TCPSGainPct
	row.SE = sig.StandardError
	row.TStatistic = sig.TStatistic
	row.DF = sig.DF
	row.PValue = sig.PValue
	row.PInterp = sig.PInterpretation
	row.CohensD = sig.CohensD
	row.Interpretation = Interpretation(g.TCPSGainPct)
	row.EffectSize = sig.EffectSize
	row.CILower = sig.CILower
	row.CIUpper = sig.CIUpper
	row.Significant = sig.IsSignificant
	row.Significance = sig.SignificanceLevel
	return row
}

// Models returns the distinct model names in row order.
func (r *Report) Models() []string {
	var models []string
	seen := make(map[string]bool)
	for _, row := range r.Rows {
		if !seen[row.Model] {
			seen[row.Model] = true
			models = append(models, row.Model)
		}
	}
	return models
}

// RowsFor returns the rows of one model.
func (r *Report) RowsFor(model string) []Row {
	var out []Row
	for _, row := range r.Rows {
		if row.Model == model {
			out = append(out, row)
		}
	}
	return out
}
