package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"cpseval/domain/core"
	"cpseval/domain/scoring"
	"cpseval/internal/analysis"
	"cpseval/internal/config"
	"cpseval/internal/errors"
)

// thresholdValue accepts a JSON number (0.75 or 75) or a label string
// such as "threshold_0.75" or "no_filtering".
type thresholdValue scoring.Threshold

func (t *thresholdValue) UnmarshalJSON(data []byte) error {
	label := string(data)
	if bytes.HasPrefix(data, []byte(`"`)) {
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
	} else {
		v, err := strconv.ParseFloat(label, 64)
		if err != nil {
			return err
		}
		label = strconv.FormatFloat(v, 'f', -1, 64)
	}
	parsed, err := scoring.ParseThreshold(label)
	if err != nil {
		return err
	}
	*t = thresholdValue(parsed)
	return nil
}

// recordRequest is one evaluated item. Null metric values mean "missing".
type recordRequest struct {
	Model      string              `json:"model" binding:"required"`
	Threshold  thresholdValue      `json:"threshold"`
	QuestionID int                 `json:"question_id"`
	Values     map[string]*float64 `json:"values" binding:"required"`
}

// optionsRequest overrides the server's engine defaults field by field.
type optionsRequest struct {
	Alpha     *float64 `json:"alpha"`
	Beta      *float64 `json:"beta"`
	Weighting string   `json:"weighting"`
	Baseline  string   `json:"baseline"`
	Alignment string   `json:"alignment"`
	Workers   int      `json:"workers"`
	// RunID lets a client open the progress stream before posting.
	RunID string `json:"run_id"`
}

// AnalysisRequest is the body of POST /v1/analyses.
type AnalysisRequest struct {
	Records []recordRequest `json:"records" binding:"required,min=1,dive"`
	Options optionsRequest  `json:"options"`
}

// seriesRequest is one precomputed CPS series.
type seriesRequest struct {
	Model     string         `json:"model" binding:"required"`
	Threshold thresholdValue `json:"threshold"`
	CPS       []*float64     `json:"cps" binding:"required"`
}

// ComparisonRequest is the body of POST /v1/comparisons.
type ComparisonRequest struct {
	Series  []seriesRequest `json:"series" binding:"required,min=1,dive"`
	Options optionsRequest  `json:"options"`
}

func (r AnalysisRequest) metricRecords() []scoring.MetricRecord {
	out := make([]scoring.MetricRecord, len(r.Records))
	for i, rec := range r.Records {
		values := make(map[string]float64, len(rec.Values))
		for name, v := range rec.Values {
			values[name] = valueOrNaN(v)
		}
		out[i] = scoring.MetricRecord{
			Model:      rec.Model,
			Threshold:  scoring.Threshold(rec.Threshold),
			QuestionID: rec.QuestionID,
			Values:     values,
		}
	}
	return out
}

func (r ComparisonRequest) scoreSeries() []analysis.ScoreSeries {
	out := make([]analysis.ScoreSeries, len(r.Series))
	for i, s := range r.Series {
		cps := make([]float64, len(s.CPS))
		for j, v := range s.CPS {
			cps[j] = valueOrNaN(v)
		}
		out[i] = analysis.ScoreSeries{Model: s.Model, Threshold: scoring.Threshold(s.Threshold), CPS: cps}
	}
	return out
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// resolve merges the request overrides onto defaults and validates them.
func (o optionsRequest) resolve(defaults config.EngineConfig) (analysis.Options, error) {
	cfg := defaults
	if o.Alpha != nil {
		cfg.Alpha = *o.Alpha
	}
	if o.Beta != nil {
		cfg.Beta = *o.Beta
	}
	if o.Weighting != "" {
		cfg.Weighting = o.Weighting
	}
	if o.Baseline != "" {
		cfg.Baseline = o.Baseline
	}
	if o.Alignment != "" {
		cfg.Alignment = o.Alignment
	}
	if o.Workers > 0 {
		cfg.Workers = o.Workers
	}

	opts, err := cfg.Options()
	if err != nil {
		return analysis.Options{}, err
	}
	if o.RunID != "" {
		runID, err := core.ParseRunID(o.RunID)
		if err != nil {
			return analysis.Options{}, errors.InvalidInput(err.Error())
		}
		opts.RunID = runID
	}
	return opts, nil
}
