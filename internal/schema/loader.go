package schema

import (
	"fmt"
	"os"

	"cpseval/domain/scoring"
	"cpseval/internal/errors"

	"gopkg.in/yaml.v3"
)

// fileEntry is the on-disk form of an Entry; polarity is written as text
// ("higher_is_better", "lower_is_better") or as +1/-1.
type fileEntry struct {
	Name     string   `yaml:"name"`
	Weight   float64  `yaml:"weight"`
	Polarity string   `yaml:"polarity"`
	Category string   `yaml:"category"`
	Aliases  []string `yaml:"aliases"`
}

type fileSchema struct {
	Metrics []fileEntry `yaml:"metrics"`
}

// Parse decodes a YAML schema document and validates it.
//
//	metrics:
//	  - name: METEOR
//	    weight: 0.15
//	    polarity: higher_is_better
//	    category: precision
//	    aliases: [meteor_score]
func Parse(data []byte) (*Schema, error) {
	var doc fileSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("failed to decode schema: %w", err))
	}

	entries := make([]Entry, 0, len(doc.Metrics))
	for _, m := range doc.Metrics {
		polarity, err := scoring.ParsePolarity(m.Polarity)
		if err != nil {
			return nil, errors.ConfigInvalidf("metric %q: %v", m.Name, err)
		}
		entries = append(entries, Entry{
			Name:     m.Name,
			Weight:   m.Weight,
			Polarity: polarity,
			Category: scoring.Category(m.Category),
			Aliases:  m.Aliases,
		})
	}
	return New(entries)
}

// LoadFile reads and validates a YAML schema file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("failed to read schema file %s: %w", path, err))
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid schema file %s", path)
	}
	return s, nil
}

// Marshal renders s in the format Parse accepts.
func Marshal(s *Schema) ([]byte, error) {
	doc := fileSchema{}
	for _, e := range s.Entries() {
		doc.Metrics = append(doc.Metrics, fileEntry{
			Name:     e.Name,
			Weight:   e.Weight,
			Polarity: e.Polarity.String(),
			Category: string(e.Category),
			Aliases:  e.Aliases,
		})
	}
	return yaml.Marshal(doc)
}
