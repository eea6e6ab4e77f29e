package excel

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cpseval/domain/scoring"
	"cpseval/internal/errors"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DataFile is one group's metric file found by DiscoverDirectory.
type DataFile struct {
	Model     string
	Threshold scoring.Threshold
	Path      string
}

// modelNames maps directory name fragments onto display names.
var modelNames = []struct {
	fragment string
	name     string
}{
	{"mistral", "Mistral 7B"},
	{"llama", "Llama 3.1 8B"},
	{"granite", "Granite 3.2 8B"},
	{"deepseek", "DeepSeek 8B"},
}

// StandardizeModelName turns a model directory name into a display name.
// Known model families map to fixed names; anything else is title-cased
// with underscores and dashes read as spaces.
func StandardizeModelName(dir string) string {
	lower := strings.ToLower(dir)
	for _, m := range modelNames {
		if strings.Contains(lower, m.fragment) {
			return m.name
		}
	}

	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(dir))
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// DiscoverDirectory walks base/<model>/<threshold>/ and returns the first
// spreadsheet (xlsx before csv, then by name) of every threshold directory,
// ordered by model then threshold.
// Directories whose name carries no threshold are skipped with a log line.
func DiscoverDirectory(base string) ([]DataFile, error) {
	modelDirs, err := subdirs(base)
	if err != nil {
		return nil, err
	}
	log.Printf("[DataReader] Found %d model directories in %s", len(modelDirs), base)

	var files []DataFile
	for _, modelDir := range modelDirs {
		model := StandardizeModelName(modelDir)
		modelPath := filepath.Join(base, modelDir)

		thresholdDirs, err := subdirs(modelPath)
		if err != nil {
			return nil, err
		}
		for _, thresholdDir := range thresholdDirs {
			threshold, err := scoring.ParseThreshold(thresholdDir)
			if err != nil {
				log.Printf("[DataReader] Warning: could not parse threshold from %s: %v", filepath.Join(modelPath, thresholdDir), err)
				continue
			}
			dir := filepath.Join(modelPath, thresholdDir)
			path, ok, err := firstSpreadsheet(dir)
			if err != nil {
				return nil, err
			}
			if !ok {
				log.Printf("[DataReader] Warning: no spreadsheet in %s", dir)
				continue
			}
			files = append(files, DataFile{Model: model, Threshold: threshold, Path: path})
		}
	}

	if len(files) == 0 {
		return nil, errors.NotFound(fmt.Sprintf("metric spreadsheets under %s", base))
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Model != files[j].Model {
			return files[i].Model < files[j].Model
		}
		return files[i].Threshold < files[j].Threshold
	})
	return files, nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("directory %s", dir))
		}
		return nil, errors.Wrapf(err, "reading directory %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func firstSpreadsheet(dir string) (string, bool, error) {
	for _, pattern := range []string{"*.xlsx", "*.csv"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", false, errors.Wrapf(err, "globbing %s", dir)
		}
		var candidates []string
		for _, m := range matches {
			// Skip Excel lock files and our own outputs.
			base := filepath.Base(m)
			if strings.HasPrefix(base, "~$") || strings.Contains(base, withCPSSuffix) {
				continue
			}
			candidates = append(candidates, m)
		}
		if len(candidates) > 0 {
			sort.Strings(candidates)
			return candidates[0], true, nil
		}
	}
	return "", false, nil
}
