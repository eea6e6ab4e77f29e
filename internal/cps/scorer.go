// Package cps computes the Composite Performance Score of a single record:
// the weighted sum of its normalized metric values.
package cps

import (
	"cpseval/domain/scoring"
	"cpseval/internal/errors"
	"cpseval/internal/normalize"
	"cpseval/internal/schema"
)

// Scorer combines normalized metric values into one score per record.
// Weights are taken as given; renormalization belongs to the weights package.
type Scorer struct {
	schema     *schema.Schema
	normalizer *normalize.Normalizer
}

// NewScorer builds a Scorer over a frozen normalizer.
func NewScorer(s *schema.Schema, n *normalize.Normalizer) *Scorer {
	return &Scorer{schema: s, normalizer: n}
}

// CheckWeights verifies every weighted metric has schema metadata. The
// first missing metric (in name order) is reported.
func (sc *Scorer) CheckWeights(weights scoring.Weights) error {
	for _, metric := range weights.Names() {
		if !sc.schema.Has(metric) {
			return errors.MissingMetadata(metric)
		}
	}
	return nil
}

// Score returns the CPS of record under weights. Metrics are summed in
// sorted name order so identical inputs give bit-identical results.
func (sc *Scorer) Score(record scoring.MetricRecord, weights scoring.Weights) (float64, error) {
	if err := sc.CheckWeights(weights); err != nil {
		return 0, err
	}

	score := 0.0
	for _, metric := range weights.Names() {
		norm, err := sc.normalizer.Normalize(record.Value(metric), metric)
		if err != nil {
			return 0, err
		}
		score += weights[metric] * norm
	}
	return score, nil
}

// ScoreAll scores records in order under one weight vector.
func (sc *Scorer) ScoreAll(records []scoring.MetricRecord, weights scoring.Weights) ([]scoring.ScoreRecord, error) {
	if err := sc.CheckWeights(weights); err != nil {
		return nil, err
	}

	out := make([]scoring.ScoreRecord, 0, len(records))
	for _, r := range records {
		value, err := sc.Score(r, weights)
		if err != nil {
			return nil, errors.Wrapf(err, "scoring %s question %d", scoring.GroupKey{Model: r.Model, Threshold: r.Threshold}, r.QuestionID)
		}
		out = append(out, scoring.ScoreRecord{
			Model:      r.Model,
			Threshold:  r.Threshold,
			QuestionID: r.QuestionID,
			CPS:        value,
		})
	}
	return out, nil
}
