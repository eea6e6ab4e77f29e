package excel

import (
	"context"
	"fmt"
	"log"

	"cpseval/domain/scoring"
	"cpseval/internal/errors"
	"cpseval/internal/schema"
)

// FileSource loads metric records from one spreadsheet. Model and threshold
// come from the hint or, when unset, from the file's own columns.
type FileSource struct {
	Path   string
	Hint   GroupHint
	Schema *schema.Schema
	Config ExcelConfig
}

// NewFileSource creates a file source with the default sheet settings.
func NewFileSource(path string, s *schema.Schema, hint GroupHint) *FileSource {
	return &FileSource{Path: path, Hint: hint, Schema: s, Config: DefaultExcelConfig()}
}

func (f *FileSource) Describe() string { return f.Path }

// Load reads the file and maps its rows onto metric records.
func (f *FileSource) Load(ctx context.Context) ([]scoring.MetricRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := NewDataReaderWithConfig(f.Path, f.Config).ReadData()
	if err != nil {
		return nil, err
	}
	records, _, err := ToMetricRecords(data, f.Schema, f.Hint, f.Config)
	return records, err
}

// DirectorySource loads every group found by DiscoverDirectory.
type DirectorySource struct {
	Base   string
	Schema *schema.Schema
	Config ExcelConfig
}

// NewDirectorySource creates a directory source with the default sheet settings.
func NewDirectorySource(base string, s *schema.Schema) *DirectorySource {
	return &DirectorySource{Base: base, Schema: s, Config: DefaultExcelConfig()}
}

func (d *DirectorySource) Describe() string { return d.Base }

// Load reads each discovered file in model, threshold order.
func (d *DirectorySource) Load(ctx context.Context) ([]scoring.MetricRecord, error) {
	files, err := DiscoverDirectory(d.Base)
	if err != nil {
		return nil, err
	}

	var all []scoring.MetricRecord
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		threshold := file.Threshold
		src := &FileSource{
			Path:   file.Path,
			Hint:   GroupHint{Model: file.Model, Threshold: &threshold},
			Schema: d.Schema,
			Config: d.Config,
		}
		records, err := src.Load(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "loading %s", file.Path)
		}
		log.Printf("[DataReader] Loaded: %s @ %s (%d rows)", file.Model, file.Threshold, len(records))
		all = append(all, records...)
	}
	if len(all) == 0 {
		return nil, errors.InsufficientData(fmt.Sprintf("no rows loaded from %s", d.Base))
	}
	log.Printf("[DataReader] Total loaded: %d rows from %d files", len(all), len(files))
	return all, nil
}
