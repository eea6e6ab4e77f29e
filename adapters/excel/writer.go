package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cpseval/internal/errors"
	"cpseval/internal/report"

	"github.com/xuri/excelize/v2"
)

const withCPSSuffix = "_with_cps"

// WithCPSPath returns <dir>/<name>_with_cps<ext> for input.
func WithCPSPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + withCPSSuffix + ext
}

// WriteWithCPS writes data with an extra CPS column appended to every row.
// scores must align with data.Rows.
func WriteWithCPS(data *ExcelData, scores []float64, path string) error {
	if len(scores) != len(data.Rows) {
		return errors.InvalidInput(fmt.Sprintf("have %d scores for %d rows", len(scores), len(data.Rows)))
	}

	t := report.Table{Columns: append(append([]string{}, data.Headers...), "CPS")}
	for i, row := range data.Rows {
		cells := make([]string, 0, len(t.Columns))
		for _, h := range data.Headers {
			cells = append(cells, row[h])
		}
		cells = append(cells, strconv.FormatFloat(scores[i], 'f', -1, 64))
		t.Rows = append(t.Rows, cells)
	}
	return WriteTable(path, "Sheet1", t)
}

// WriteTable writes one table as CSV or as a single-sheet workbook,
// chosen by the file extension.
func WriteTable(path, sheet string, t report.Table) error {
	if fileTypeOf(path) == "csv" {
		return writeCSV(path, t)
	}
	return writeWorkbook(path, []namedTable{{sheet, t}})
}

// WriteReport writes the full results, both projections and the T-CPS
// pivot as sheets of one workbook.
func WriteReport(path string, rep *report.Report) error {
	return writeWorkbook(path, []namedTable{
		{"Results", report.Full(rep.Rows)},
		{"Table1", report.Table1(rep.Rows)},
		{"Table2", report.Table2(rep.Rows)},
		{"Summary", report.SummaryPivot(rep.Rows).Table()},
	})
}

type namedTable struct {
	name  string
	table report.Table
}

func writeCSV(path string, t report.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	log.Printf("[DataWriter] Wrote %s (%d rows)", path, len(t.Rows))
	return nil
}

func writeWorkbook(path string, tables []namedTable) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, nt := range tables {
		switch {
		case i == 0 && nt.name != "Sheet1":
			if err := f.SetSheetName("Sheet1", nt.name); err != nil {
				return errors.Wrapf(err, "naming sheet %s", nt.name)
			}
		case i > 0:
			if _, err := f.NewSheet(nt.name); err != nil {
				return errors.Wrapf(err, "adding sheet %s", nt.name)
			}
		}
		if err := writeSheet(f, nt.name, nt.table); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	log.Printf("[DataWriter] Wrote %s (%d sheets)", path, len(tables))
	return nil
}

// writeSheet stores numeric-looking cells as numbers so the workbook stays
// sortable in Excel.
func writeSheet(f *excelize.File, sheet string, t report.Table) error {
	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrapf(err, "writing header of %s", sheet)
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for i, c := range row {
			if v, err := strconv.ParseFloat(c, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
				cells[i] = v
			} else {
				cells[i] = c
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return errors.Wrapf(err, "writing row %d of %s", r+2, sheet)
		}
	}
	return nil
}
