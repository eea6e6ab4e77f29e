// Package analysis orchestrates one scoring run: a single global statistics
// snapshot, per-group CPS and T-CPS on a bounded worker pool, paired
// comparisons against each model's baseline, and report assembly once
// every group has finished.
package analysis

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"cpseval/domain/core"
	"cpseval/domain/scoring"
	"cpseval/internal/cps"
	"cpseval/internal/errors"
	"cpseval/internal/normalize"
	"cpseval/internal/report"
	"cpseval/internal/schema"
	"cpseval/internal/significance"
	"cpseval/internal/tcps"
	"cpseval/internal/weights"

	"golang.org/x/sync/errgroup"
)

// Engine runs analyses against one metric schema. An Engine holds no
// per-run state and may be shared.
type Engine struct {
	schema   *schema.Schema
	progress ProgressSink
	now      func() time.Time
}

// NewEngine creates an engine for s.
func NewEngine(s *schema.Schema) *Engine {
	return &Engine{schema: s, now: time.Now}
}

// WithProgress returns a copy of the engine that publishes progress events.
func (e *Engine) WithProgress(sink ProgressSink) *Engine {
	cp := *e
	cp.progress = sink
	return &cp
}

// Schema returns the engine's metric schema.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Result is everything one run produced.
type Result struct {
	RunID       core.RunID            `json:"run_id"`
	GlobalStats scoring.GlobalStats   `json:"global_stats,omitempty"`
	Scores      []scoring.ScoreRecord `json:"scores"`
	Groups      []scoring.GroupResult `json:"groups"`
	Warnings    []scoring.Warning     `json:"warnings,omitempty"`
	Report      *report.Report        `json:"report"`
}

// group is the working state of one (model, threshold) group.
type group struct {
	key     scoring.GroupKey
	indices []int
	result  scoring.GroupResult
	warns   []scoring.Warning
}

// Run scores records and compares every threshold of each model against
// opts.Baseline. Configuration and metadata errors abort the run; groups
// that cannot be compared are reported with a non-ok status instead.
func (e *Engine) Run(ctx context.Context, records []scoring.MetricRecord, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.InsufficientData("no metric records to score")
	}

	start := e.now()
	runID := opts.runID()
	log.Printf("[Engine] Run %s: %d records, weighting=%s alignment=%s baseline=%s workers=%d",
		runID, len(records), opts.Weighting, opts.Alignment, opts.Baseline, opts.Workers)

	strategy, err := weights.NewStrategy(opts.Weighting, e.schema)
	if err != nil {
		return nil, err
	}

	// Computed once and frozen for the rest of the run.
	global, warnings := normalize.CollectGlobalStats(records, e.schema)
	for _, w := range warnings {
		log.Printf("[Engine] Warning: %s", w)
	}
	normalizer, err := normalize.New(e.schema, global)
	if err != nil {
		return nil, err
	}
	scorer := cps.NewScorer(e.schema, normalizer)

	groups := groupRecords(records)
	scores := make([]scoring.ScoreRecord, len(records))
	tracker := e.newTracker(runID, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, grp := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w, err := strategy.Weights(grp.key.Threshold)
			if err != nil {
				return errors.Wrapf(err, "weights for %s", grp.key)
			}
			subset := make([]scoring.MetricRecord, len(grp.indices))
			for i, idx := range grp.indices {
				subset[i] = records[idx]
			}
			scored, err := scorer.ScoreAll(subset, w)
			if err != nil {
				return errors.Wrapf(err, "scoring %s", grp.key)
			}
			for i, idx := range grp.indices {
				scores[idx] = scored[i]
			}
			grp.result.Scores = scored
			aggregate(grp, opts.Params)
			tracker.finish(PhaseScoring, grp.key, grp.result.Status)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("[Engine] Run %s aborted: %v", runID, err)
		return nil, err
	}

	result, err := e.compare(ctx, runID, groups, opts, tracker)
	if err != nil {
		return nil, err
	}
	result.GlobalStats = normalizer.Stats()
	result.Scores = scores
	result.Warnings = append(warnings, result.Warnings...)

	rows := make([]core.DatasetRow, len(records))
	for i, r := range records {
		rows[i] = core.DatasetRow{Model: r.Model, Threshold: r.Threshold.Float(), QuestionID: r.QuestionID, Values: r.Values}
	}
	result.Report = report.Build(e.meta(runID, opts, core.ComputeDatasetHash(rows)), result.Groups, result.Warnings)

	log.Printf("[Engine] Run %s completed in %v: %d groups, %d warnings",
		runID, e.now().Sub(start), len(result.Groups), len(result.Warnings))
	return result, nil
}

// ScoreSeries is a precomputed, ordered sequence of CPS values for one group.
type ScoreSeries struct {
	Model     string            `json:"model"`
	Threshold scoring.Threshold `json:"threshold"`
	CPS       []float64         `json:"cps"`
}

// CompareScores runs aggregation and paired comparison on CPS values that
// were scored elsewhere. Question ids are assigned 1..n in series order.
// NaN values are dropped from their series.
func (e *Engine) CompareScores(ctx context.Context, series []ScoreSeries, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, errors.InsufficientData("no score series to compare")
	}

	runID := opts.runID()
	log.Printf("[Engine] Run %s: comparing %d precomputed series against baseline %s", runID, len(series), opts.Baseline)

	byKey := make(map[scoring.GroupKey]*group)
	var groups []*group
	var rows []core.DatasetRow
	for _, s := range series {
		key := scoring.GroupKey{Model: s.Model, Threshold: s.Threshold}
		if _, dup := byKey[key]; dup {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate series for %s", key))
		}
		grp := &group{key: key, result: scoring.GroupResult{Key: key}}
		for _, v := range s.CPS {
			if math.IsNaN(v) {
				continue
			}
			id := len(grp.result.Scores) + 1
			grp.result.Scores = append(grp.result.Scores, scoring.ScoreRecord{
				Model: s.Model, Threshold: s.Threshold, QuestionID: id, CPS: v,
			})
			rows = append(rows, core.DatasetRow{Model: s.Model, Threshold: s.Threshold.Float(), QuestionID: id, Values: map[string]float64{"CPS": v}})
		}
		aggregate(grp, opts.Params)
		byKey[key] = grp
		groups = append(groups, grp)
	}
	sortGroups(groups)

	tracker := e.newTracker(runID, len(groups))
	result, err := e.compare(ctx, runID, groups, opts, tracker)
	if err != nil {
		return nil, err
	}
	for _, grp := range groups {
		result.Scores = append(result.Scores, grp.result.Scores...)
	}
	result.Report = report.Build(e.meta(runID, opts, core.ComputeDatasetHash(rows)), result.Groups, result.Warnings)
	return result, nil
}

// aggregate fills the T-CPS summary of a scored group.
func aggregate(grp *group, params tcps.Params) {
	if len(grp.result.Scores) == 0 {
		grp.result.Status = scoring.StatusNoData
		grp.result.Error = "group has no records"
		return
	}
	summary, err := tcps.Aggregate(grp.result.CPSValues(), params)
	if err != nil {
		grp.result.Status = scoring.StatusInsufficientData
		grp.result.Error = err.Error()
		return
	}
	grp.result.Summary = &summary
	grp.result.Status = scoring.StatusOK
}

// compare joins every group with its model's baseline. It runs only after
// all groups have been aggregated.
func (e *Engine) compare(ctx context.Context, runID core.RunID, groups []*group, opts Options, tracker *tracker) (*Result, error) {
	baselines := make(map[string]*group)
	for _, grp := range groups {
		if grp.key.Threshold.Equal(opts.Baseline) {
			baselines[grp.key.Model] = grp
			if grp.result.Status == scoring.StatusOK {
				grp.result.Status = scoring.StatusBaseline
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, grp := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.compareGroup(grp, baselines[grp.key.Model], opts)
			tracker.finish(PhaseComparison, grp.key, grp.result.Status)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Groups: make([]scoring.GroupResult, len(groups))}
	for i, grp := range groups {
		result.Groups[i] = grp.result
		result.Warnings = append(result.Warnings, grp.warns...)
	}
	for _, w := range result.Warnings {
		log.Printf("[Engine] Warning: %s", w)
	}
	return result, nil
}

func (e *Engine) compareGroup(grp, baseline *group, opts Options) {
	key := grp.key
	skip := func(status scoring.GroupStatus, msg string) {
		grp.result.Status = status
		grp.result.Error = msg
		grp.warns = append(grp.warns, scoring.Warning{Code: scoring.WarningGroupSkipped, Group: &key, Message: msg})
	}

	switch {
	case baseline == grp:
		return
	case !grp.result.Status.Scored():
		skip(grp.result.Status, grp.result.Error)
		return
	case baseline == nil:
		skip(scoring.StatusNoBaseline, errors.NoBaseline(key.Model, opts.Baseline.String()).Error())
		return
	case baseline.result.Summary == nil:
		skip(scoring.StatusNoBaseline, fmt.Sprintf("baseline group %s has no scores", baseline.key))
		return
	}

	var (
		sig scoring.SignificanceResult
		err error
	)
	if opts.Alignment == significance.AlignQuestionID {
		sig, err = significance.CompareByQuestion(baseline.result.Scores, grp.result.Scores)
	} else {
		sig, err = significance.Compare(baseline.result.CPSValues(), grp.result.CPSValues())
	}
	for i := range sig.Warnings {
		sig.Warnings[i].Group = &key
	}
	grp.warns = append(grp.warns, sig.Warnings...)
	if err != nil {
		skip(scoring.StatusInsufficientData, errors.Wrap(err, "paired comparison").Error())
		return
	}
	grp.result.Significance = &sig
	grp.result.TCPSGainPct = tcps.ImprovementPct(baseline.result.Summary.TCPS, grp.result.Summary.TCPS)
}

func (e *Engine) meta(runID core.RunID, opts Options, dataset core.DatasetHash) report.Meta {
	return report.Meta{
		RunID:       runID,
		CreatedAt:   e.now().UTC(),
		SchemaHash:  e.schema.Hash(),
		DatasetHash: dataset,
		Baseline:    opts.Baseline.String(),
		Weighting:   string(opts.Weighting),
		Alignment:   string(opts.Alignment),
		Alpha:       opts.Params.Alpha,
		Beta:        opts.Params.Beta,
	}
}

// groupRecords buckets record indices by (model, threshold). Thresholds
// that differ only by float noise share a group. Records keep input order
// within a group.
func groupRecords(records []scoring.MetricRecord) []*group {
	type bucketKey struct {
		model     string
		threshold int64
	}
	buckets := make(map[bucketKey]*group)
	var groups []*group
	for i, r := range records {
		bk := bucketKey{r.Model, r.Threshold.Key()}
		grp, ok := buckets[bk]
		if !ok {
			key := scoring.GroupKey{Model: r.Model, Threshold: r.Threshold}
			grp = &group{key: key, result: scoring.GroupResult{Key: key}}
			buckets[bk] = grp
			groups = append(groups, grp)
		}
		grp.indices = append(grp.indices, i)
	}
	sortGroups(groups)
	return groups
}

func sortGroups(groups []*group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].key.Model != groups[j].key.Model {
			return groups[i].key.Model < groups[j].key.Model
		}
		return groups[i].key.Threshold < groups[j].key.Threshold
	})
}

// tracker counts finished groups per phase and publishes progress.
type tracker struct {
	sink  ProgressSink
	seq   *SequenceManager
	runID core.RunID
	total int
	now   func() time.Time

	scored   int64
	compared int64
}

func (e *Engine) newTracker(runID core.RunID, total int) *tracker {
	return &tracker{sink: e.progress, seq: NewSequenceManager(), runID: runID, total: total, now: e.now}
}

func (t *tracker) finish(phase Phase, key scoring.GroupKey, status scoring.GroupStatus) {
	counter := &t.scored
	if phase == PhaseComparison {
		counter = &t.compared
	}
	n := atomic.AddInt64(counter, 1)
	if t.sink == nil {
		return
	}
	t.sink.Publish(ProgressEvent{
		Seq:       t.seq.Next(),
		RunID:     t.runID,
		Phase:     phase,
		Group:     key,
		Status:    status,
		Done:      int(n),
		Total:     t.total,
		Timestamp: t.now(),
	})
}
