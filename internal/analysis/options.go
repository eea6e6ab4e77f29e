package analysis

import (
	"runtime"

	"cpseval/domain/core"
	"cpseval/domain/scoring"
	"cpseval/internal/errors"
	"cpseval/internal/significance"
	"cpseval/internal/tcps"
	"cpseval/internal/weights"
)

// DefaultBaseline is the threshold every other threshold is compared against.
const DefaultBaseline scoring.Threshold = 0.01

// Options tune one analysis run.
type Options struct {
	Params    tcps.Params            `json:"params"`
	Weighting weights.Mode           `json:"weighting"`
	Baseline  scoring.Threshold      `json:"baseline"`
	Alignment significance.Alignment `json:"alignment"`
	// Workers bounds the number of groups processed concurrently.
	Workers int `json:"workers"`
	// RunID, when set, is used instead of a freshly generated id so callers
	// can subscribe to progress before the run starts.
	RunID core.RunID `json:"-"`
}

// DefaultOptions returns fixed weighting, prefix alignment, baseline 0.01
// and one worker per CPU.
func DefaultOptions() Options {
	return Options{
		Params:    tcps.DefaultParams(),
		Weighting: weights.ModeFixed,
		Baseline:  DefaultBaseline,
		Alignment: significance.AlignPrefix,
		Workers:   runtime.NumCPU(),
	}
}

// Validate rejects malformed options and defaults an empty Weighting,
// empty Alignment and non-positive Workers. Params and Baseline are used as
// given: zero Params disable the consistency bonus and variance penalty, and
// a zero Baseline selects the NoFiltering group. Start from DefaultOptions
// to get alpha 0.1, beta 0.05 and baseline 0.01.
func (o *Options) Validate() error {
	if err := o.Params.Validate(); err != nil {
		return err
	}
	if o.Weighting == "" {
		o.Weighting = weights.ModeFixed
	}
	if _, err := weights.ParseMode(string(o.Weighting)); err != nil {
		return err
	}
	alignment, err := significance.ParseAlignment(string(o.Alignment))
	if err != nil {
		return err
	}
	o.Alignment = alignment
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Baseline < 0 || o.Baseline > 1 {
		return errors.ConfigInvalidf("baseline threshold %v outside [0,1]", float64(o.Baseline))
	}
	return nil
}

func (o Options) runID() core.RunID {
	if o.RunID != "" {
		return o.RunID
	}
	return core.NewRunID()
}
