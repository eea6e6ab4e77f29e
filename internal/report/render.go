package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func round4(v float64) string { return fmt.Sprintf("%.4f", v) }

// Markdown renders the report as a Markdown document: run metadata, per
// model analysis, Table 1, Table 2, the T-CPS pivot and any warnings.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# CPS / T-CPS Analysis %s\n\n", r.RunID)
	fmt.Fprintf(&b, "- Created: %s\n", r.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Baseline threshold: %s\n", r.Baseline)
	fmt.Fprintf(&b, "- Weighting: %s, alignment: %s\n", r.Weighting, r.Alignment)
	fmt.Fprintf(&b, "- T-CPS alpha %.3g, beta %.3g\n", r.Alpha, r.Beta)
	fmt.Fprintf(&b, "- Schema %s, dataset %s\n\n", short(r.SchemaHash.String()), short(r.DatasetHash.String()))

	if analyses := r.AnalyzeModels(); len(analyses) > 0 {
		b.WriteString("## Model Summary\n\n")
		for _, a := range analyses {
			fmt.Fprintf(&b, "### %s\n\n", a.Model)
			fmt.Fprintf(&b, "- Optimal threshold: %s (T-CPS %.4f)\n", a.OptimalThreshold, a.OptimalTCPS)
			fmt.Fprintf(&b, "- T-CPS range: %.4f to %.4f (mean %.4f, sd %.4f)\n", a.MinTCPS, a.MaxTCPS, a.MeanTCPS, a.StdTCPS)
			if a.ScoredThresholds > 0 {
				fmt.Fprintf(&b, "- Best CPS threshold: %s (%.2f%%)\n", a.BestCPSThreshold, a.BestCPSImprovement)
				fmt.Fprintf(&b, "- Best T-CPS threshold: %s (%.2f%%), %s\n", a.BestTCPSThreshold, a.BestTCPSImprovement, a.Alignment)
			}
			fmt.Fprintf(&b, "- Significant thresholds: %d of %d compared\n\n", a.SignificantThresholds, a.ScoredThresholds)
		}
	}

	b.WriteString("## Table 1: Statistical Significance\n\n")
	writeMarkdownTable(&b, project(r.Rows, Table1Columns, round4))

	b.WriteString("\n## Table 2: T-CPS Descriptive Metrics\n\n")
	writeMarkdownTable(&b, project(r.Rows, Table2Columns, round4))

	if pivot := SummaryPivot(r.Rows); len(pivot.Thresholds) > 0 {
		b.WriteString("\n## T-CPS by Threshold\n\n")
		writeMarkdownTable(&b, pivot.Table())
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

// HTML renders Markdown() to a standalone HTML page.
func (r *Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "CPS Analysis " + r.RunID.String(),
	})
	return markdown.ToHTML([]byte(r.Markdown()), p, renderer)
}

func writeMarkdownTable(b *strings.Builder, t Table) {
	if len(t.Rows) == 0 {
		b.WriteString("_No rows._\n")
		return
	}
	b.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Columns)) + "\n")
	for _, row := range t.Rows {
		escaped := make([]string, len(row))
		for i, c := range row {
			escaped[i] = markdownEscaper.Replace(c)
		}
		b.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
	}
}

var markdownEscaper = strings.NewReplacer("|", "\\|", "*", "\\*", "_", "\\_")

func short(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	if h == "" {
		return "-"
	}
	return h
}
