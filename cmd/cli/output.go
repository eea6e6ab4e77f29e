package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cpseval/adapters/excel"
	"cpseval/internal/errors"
	"cpseval/internal/report"
)

// reportWriters maps a report format onto its writer.
var reportWriters = map[string]func(path string, rep *report.Report) error{
	"xlsx": excel.WriteReport,
	"csv": func(path string, rep *report.Report) error {
		return excel.WriteTable(path, "Results", report.Full(rep.Rows))
	},
	"md": func(path string, rep *report.Report) error {
		return os.WriteFile(path, []byte(rep.Markdown()), 0o644)
	},
	"html": func(path string, rep *report.Report) error {
		return os.WriteFile(path, rep.HTML(), 0o644)
	},
	"json": func(path string, rep *report.Report) error {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	},
}

func supportedFormats() []string {
	formats := make([]string, 0, len(reportWriters))
	for f := range reportWriters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// formatOf returns the explicit format or the one implied by path.
func formatOf(path, format string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "markdown" {
		return "md"
	}
	return ext
}

func defaultExt(format string) string {
	if format == "" {
		return "xlsx"
	}
	return strings.ToLower(format)
}

func writeReport(path, format string, rep *report.Report) error {
	f := formatOf(path, format)
	write, ok := reportWriters[f]
	if !ok {
		return errors.InvalidInput(fmt.Sprintf("unsupported report format %q (want one of %s)", f, strings.Join(supportedFormats(), ", ")))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return write(path, rep)
}
