package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cpseval/adapters/excel"
	"cpseval/domain/scoring"
	"cpseval/internal/analysis"
	"cpseval/internal/config"
	"cpseval/internal/errors"
	"cpseval/internal/schema"
	"cpseval/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A .env file is optional; the CPS_* environment still applies.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "cpseval",
		Short: "Composite performance scoring and paired significance analysis",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newScoreCmd(),
		newStatsCmd(),
		newSchemaCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// engineFlags are the per-run overrides shared by analyze, score and stats.
// Unset flags fall back to the CPS_* environment.
type engineFlags struct {
	alpha      float64
	beta       float64
	weighting  string
	baseline   string
	alignment  string
	workers    int
	schemaFile string
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.alpha, "alpha", 0, "T-CPS consistency bonus weight (default from CPS_ALPHA)")
	cmd.Flags().Float64Var(&f.beta, "beta", 0, "T-CPS variance penalty weight (default from CPS_BETA)")
	cmd.Flags().StringVar(&f.weighting, "weighting", "", "Weighting mode: fixed|threshold")
	cmd.Flags().StringVar(&f.baseline, "baseline", "", "Baseline threshold label, e.g. 0.01 or no_filtering")
	cmd.Flags().StringVar(&f.alignment, "alignment", "", "Pairing of baseline and test values: prefix|question_id")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent groups (default one per CPU)")
	cmd.Flags().StringVar(&f.schemaFile, "schema", "", "Metric schema YAML (default: built-in schema)")
}

// resolve loads configuration from the environment and applies the flags
// the user actually set.
func (f *engineFlags) resolve(cmd *cobra.Command) (*config.Config, analysis.Options, *schema.Schema, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, analysis.Options{}, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("alpha") {
		cfg.Engine.Alpha = f.alpha
	}
	if flags.Changed("beta") {
		cfg.Engine.Beta = f.beta
	}
	if flags.Changed("weighting") {
		cfg.Engine.Weighting = f.weighting
	}
	if flags.Changed("baseline") {
		cfg.Engine.Baseline = f.baseline
	}
	if flags.Changed("alignment") {
		cfg.Engine.Alignment = f.alignment
	}
	if flags.Changed("workers") {
		cfg.Engine.Workers = f.workers
	}
	if flags.Changed("schema") {
		cfg.Paths.SchemaFile = f.schemaFile
	}

	opts, err := cfg.Engine.Options()
	if err != nil {
		return nil, analysis.Options{}, nil, err
	}
	s, err := cfg.Paths.LoadSchema()
	if err != nil {
		return nil, analysis.Options{}, nil, err
	}
	return cfg, opts, s, nil
}

func newAnalyzeCmd() *cobra.Command {
	var ef engineFlags
	var out, format, model, threshold string

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Score metric files and compare every threshold against the baseline",
		Long: `Score a directory of per-model, per-threshold metric files (or a single
spreadsheet) and write the comparison report.

A directory is expected to hold one folder per model with one folder per
threshold inside (e.g. llama/threshold_0.75/results.xlsx). A single file
needs Model and Threshold columns unless --model and --threshold are given.

Example: cpseval analyze ./results --weighting threshold --out report.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, opts, s, err := ef.resolve(cmd)
			if err != nil {
				return err
			}

			path := cfg.Paths.DataDir
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.InvalidInput("no input path given and CPS_DATA_DIR is not set")
			}

			source, err := newSource(path, s, model, threshold)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(cfg.Paths.OutputDir, "cps_analysis."+defaultExt(format))
			}
			return runAnalyze(cmd.Context(), source, s, opts, out, format)
		},
	}

	ef.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Report file (default <CPS_OUTPUT_DIR>/cps_analysis.<format>)")
	cmd.Flags().StringVar(&format, "format", "", "Report format: xlsx|csv|md|html|json (default from --out extension)")
	cmd.Flags().StringVar(&model, "model", "", "Model name for a single-group file")
	cmd.Flags().StringVar(&threshold, "threshold", "", "Threshold label for a single-group file")
	return cmd
}

func newSource(path string, s *schema.Schema, model, threshold string) (ports.RecordSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NotFound(path)
	}
	if info.IsDir() {
		return excel.NewDirectorySource(path, s), nil
	}

	hint := excel.GroupHint{Model: model}
	if threshold != "" {
		t, err := scoring.ParseThreshold(threshold)
		if err != nil {
			return nil, errors.InvalidInput(err.Error())
		}
		hint.Threshold = &t
	}
	return excel.NewFileSource(path, s, hint), nil
}

func runAnalyze(ctx context.Context, source ports.RecordSource, s *schema.Schema, opts analysis.Options, out, format string) error {
	records, err := source.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d records from %s\n", len(records), source.Describe())

	res, err := analysis.NewEngine(s).Run(ctx, records, opts)
	if err != nil {
		return err
	}
	if err := writeReport(out, format, res.Report); err != nil {
		return err
	}

	printSummary(res)
	fmt.Printf("\nReport written to %s\n", out)
	return nil
}

func printSummary(res *analysis.Result) {
	fmt.Printf("\nRun %s: %d groups, %d warnings\n", res.RunID, len(res.Groups), len(res.Warnings))
	for _, m := range res.Report.AnalyzeModels() {
		fmt.Printf("  %-20s optimal %s (T-CPS %.4f, best gain %+.2f%%), %d/%d significant, CPS/T-CPS %s\n",
			m.Model, m.OptimalThreshold, m.OptimalTCPS, m.BestTCPSImprovement,
			m.SignificantThresholds, m.ScoredThresholds, m.Alignment)
	}
	for _, w := range res.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func newScoreCmd() *cobra.Command {
	var ef engineFlags

	cmd := &cobra.Command{
		Use:   "score [dir]",
		Short: "Append a CPS column to every metric file under a results directory",
		Long: `Score every discovered metric file against one dataset-wide normalization
frame and write <name>_with_cps next to each input.

Example: cpseval score ./results --weighting threshold`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, opts, s, err := ef.resolve(cmd)
			if err != nil {
				return err
			}
			return runScore(cmd.Context(), args[0], s, opts)
		},
	}

	ef.register(cmd)
	return cmd
}

type scoredFile struct {
	file   excel.DataFile
	data   *excel.ExcelData
	offset int
}

func runScore(ctx context.Context, dir string, s *schema.Schema, opts analysis.Options) error {
	files, err := excel.DiscoverDirectory(dir)
	if err != nil {
		return err
	}

	cfg := excel.DefaultExcelConfig()
	var records []scoring.MetricRecord
	var inputs []scoredFile
	for _, file := range files {
		data, err := excel.NewDataReaderWithConfig(file.Path, cfg).ReadData()
		if err != nil {
			return err
		}
		threshold := file.Threshold
		recs, _, err := excel.ToMetricRecords(data, s, excel.GroupHint{Model: file.Model, Threshold: &threshold}, cfg)
		if err != nil {
			return err
		}
		inputs = append(inputs, scoredFile{file: file, data: data, offset: len(records)})
		records = append(records, recs...)
	}

	res, err := analysis.NewEngine(s).Run(ctx, records, opts)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		scores := make([]float64, len(in.data.Rows))
		for i := range scores {
			scores[i] = res.Scores[in.offset+i].CPS
		}
		out := excel.WithCPSPath(in.file.Path)
		if err := excel.WriteWithCPS(in.data, scores, out); err != nil {
			return err
		}
		fmt.Printf("%s @ %s: %d rows -> %s\n", in.file.Model, in.file.Threshold, len(scores), out)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	var ef engineFlags
	var out, format, model string

	cmd := &cobra.Command{
		Use:   "stats [pivot-file]",
		Short: "Run paired significance tests on a precomputed CPS table",
		Long: `Compare precomputed CPS values: one row per threshold, the threshold label in
the first column and one CPS value per question after it.

Example: cpseval stats llama_cps.xlsx --model "Llama 3.1 8B" --out llama_stats.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, opts, s, err := ef.resolve(cmd)
			if err != nil {
				return err
			}
			if model == "" {
				model = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			series, err := excel.ReadPivot(args[0], model)
			if err != nil {
				return err
			}

			res, err := analysis.NewEngine(s).CompareScores(cmd.Context(), series, opts)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(cfg.Paths.OutputDir, "cps_stats."+defaultExt(format))
			}
			if err := writeReport(out, format, res.Report); err != nil {
				return err
			}
			printSummary(res)
			fmt.Printf("\nReport written to %s\n", out)
			return nil
		},
	}

	ef.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Report file (default <CPS_OUTPUT_DIR>/cps_stats.<format>)")
	cmd.Flags().StringVar(&format, "format", "", "Report format: xlsx|csv|md|html|json")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default: file name)")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	var schemaFile string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the metric schema as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := schema.Default()
			if schemaFile != "" {
				loaded, err := schema.LoadFile(schemaFile)
				if err != nil {
					return err
				}
				s = loaded
			}
			data, err := schema.Marshal(s)
			if err != nil {
				return err
			}
			fmt.Printf("# schema hash %s\n", s.Hash())
			_, err = os.Stdout.Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&schemaFile, "schema", "", "Validate and print this schema file instead of the built-in one")
	return cmd
}
