package excel

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"cpseval/domain/scoring"
	"cpseval/internal/report"
	"cpseval/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New([]schema.Entry{
		{Name: "A", Weight: 0.6, Polarity: scoring.HigherIsBetter},
		{Name: "B", Weight: 0.4, Polarity: scoring.LowerIsBetter, Aliases: []string{"b_score"}},
	})
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeXLSX(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestToMetricRecords_LongFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.csv")
	writeFile(t, path, "Model,Threshold,Question_ID,A,b_score,Answer\n"+
		"m,threshold_0.50,7,0.5,2,yes\n"+
		"m,0.75,8.0,,NaN,no\n")

	data, err := NewDataReader(path).ReadData()
	require.NoError(t, err)
	records, missing, err := ToMetricRecords(data, testSchema(t), GroupHint{}, DefaultExcelConfig())
	require.NoError(t, err)

	assert.Empty(t, missing)
	require.Len(t, records, 2)
	assert.Equal(t, "m", records[0].Model)
	assert.True(t, records[0].Threshold.Equal(0.5))
	assert.Equal(t, 7, records[0].QuestionID)
	assert.Equal(t, 2.0, records[0].Values["B"])
	assert.Equal(t, 8, records[1].QuestionID)
	assert.True(t, math.IsNaN(records[1].Value("A")))
	assert.True(t, math.IsNaN(records[1].Value("B")))
}

func TestToMetricRecords_HintAndMissingMetric(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.csv")
	writeFile(t, path, "A,Question\n0.1,q1\n0.2,q2\n")

	data, err := NewDataReader(path).ReadData()
	require.NoError(t, err)
	threshold := scoring.Threshold(0.6)
	records, missing, err := ToMetricRecords(data, testSchema(t), GroupHint{Model: "m", Threshold: &threshold}, DefaultExcelConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, missing)
	assert.Equal(t, 2, records[1].QuestionID)
	assert.True(t, math.IsNaN(records[0].Value("B")))
}

func TestToMetricRecords_Errors(t *testing.T) {
	dir := t.TempDir()
	s := testSchema(t)

	noModel := filepath.Join(dir, "nomodel.csv")
	writeFile(t, noModel, "A,B\n1,2\n")
	data, err := NewDataReader(noModel).ReadData()
	require.NoError(t, err)
	_, _, err = ToMetricRecords(data, s, GroupHint{}, DefaultExcelConfig())
	assert.Error(t, err)

	badCell := filepath.Join(dir, "bad.csv")
	writeFile(t, badCell, "Model,Threshold,A,B\nm,0.5,abc,2\n")
	data, err = NewDataReader(badCell).ReadData()
	require.NoError(t, err)
	_, _, err = ToMetricRecords(data, s, GroupHint{}, DefaultExcelConfig())
	assert.ErrorContains(t, err, "line 2")

	_, err = NewDataReader(filepath.Join(dir, "missing.xlsx")).ReadData()
	assert.Error(t, err)
}

func TestStandardizeModelName(t *testing.T) {
	tests := map[string]string{
		"mistral":     "Mistral 7B",
		"Llama3.1-8b": "Llama 3.1 8B",
		"ibm_granite": "Granite 3.2 8B",
		"DeepSeek-R1": "DeepSeek 8B",
		"phi_3-mini":  "Phi 3 Mini",
		"qwen":        "Qwen",
		"élan_model":  "Élan Model",
		"ørsted-v2":   "Ørsted V2",
	}
	for in, want := range tests {
		assert.Equal(t, want, StandardizeModelName(in), in)
	}
}

func TestDiscoverDirectory_AndDirectorySource(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "mistral", "threshold_0.01", "results.csv"), "A,B\n0.5,2\n0.6,3\n")
	writeFile(t, filepath.Join(base, "mistral", "threshold_0.01", "results_with_cps.csv"), "A,B,CPS\n9,9,9\n")
	writeXLSX(t, filepath.Join(base, "mistral", "75", "results.xlsx"), [][]interface{}{
		{"A", "b_score"}, {0.7, 1.0}, {0.8, 1.5},
	})
	writeFile(t, filepath.Join(base, "mistral", "notes", "readme.csv"), "x\n1\n")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "llama", "0.50"), 0o755))

	files, err := DiscoverDirectory(base)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "Mistral 7B", files[0].Model)
	assert.True(t, files[0].Threshold.Equal(0.01))
	assert.Equal(t, "results.csv", filepath.Base(files[0].Path))
	assert.True(t, files[1].Threshold.Equal(0.75))

	records, err := NewDirectorySource(base, testSchema(t)).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, 0.8, records[3].Values["A"])
	assert.Equal(t, 1.5, records[3].Values["B"])
	assert.Equal(t, 2, records[3].QuestionID)

	_, err = DiscoverDirectory(filepath.Join(base, "nope"))
	assert.Error(t, err)
}

func TestReadPivot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pivot.csv")
	writeFile(t, path, ",q1,q2,q3\n"+
		"threshold_0.01,0.5,0.52,0.48\n"+
		"threshold_0.75,0.6,,0.62\n")

	series, err := ReadPivot(path, "Mistral 7B")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, []float64{0.5, 0.52, 0.48}, series[0].CPS)
	assert.Equal(t, []float64{0.6, 0.62}, series[1].CPS)
	assert.True(t, series[1].Threshold.Equal(0.75))
	assert.Equal(t, "Mistral 7B", series[1].Model)
}

func TestWriteWithCPS_RoundTrip(t *testing.T) {
	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, "answers.csv")
			writeFile(t, input, "Question,A\nwhat,0.5\nwhy,0.7\n")
			data, err := NewDataReader(input).ReadData()
			require.NoError(t, err)

			out := WithCPSPath(filepath.Join(dir, "answers"+ext))
			assert.Equal(t, filepath.Join(dir, "answers_with_cps"+ext), out)
			require.NoError(t, WriteWithCPS(data, []float64{0.25, 0.75}, out))

			back, err := NewDataReader(out).ReadData()
			require.NoError(t, err)
			assert.Equal(t, []string{"Question", "A", "CPS"}, back.Headers)
			assert.Equal(t, "0.75", back.Rows[1]["CPS"])
			assert.Equal(t, "why", back.Rows[1]["Question"])

			assert.Error(t, WriteWithCPS(data, []float64{1}, out))
		})
	}
}

func TestWriteReport(t *testing.T) {
	rep := report.Build(report.Meta{}, []scoring.GroupResult{{
		Key:          scoring.GroupKey{Model: "m", Threshold: 0.5},
		Status:       scoring.StatusOK,
		Summary:      &scoring.ThresholdSummary{N: 2, TCPS: 0.6},
		Significance: &scoring.SignificanceResult{N: 2, DF: 1, PValue: 0.5, SignificanceLevel: "ns", EffectSize: "small", PInterpretation: "p > 0.05"},
	}}, nil)

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteReport(path, rep))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Results", "Table1", "Table2", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Table2")
	require.NoError(t, err)
	assert.Equal(t, report.Table2Columns, rows[0])
	assert.Equal(t, "0.6", rows[1][2])
}
