// Package schema holds the validated description of the metric set: weight,
// polarity and category per metric plus the alias table used to map input
// column labels onto metric names.
package schema

import (
	"math"
	"sort"
	"strings"

	"cpseval/domain/core"
	"cpseval/domain/scoring"
	"cpseval/internal/errors"
)

// WeightTolerance is the allowed deviation of the base weight sum from 1.
const WeightTolerance = 1e-6

// Entry describes one metric.
type Entry struct {
	Name     string           `yaml:"name" json:"name"`
	Weight   float64          `yaml:"weight" json:"weight"`
	Polarity scoring.Polarity `yaml:"-" json:"polarity"`
	Category scoring.Category `yaml:"category" json:"category,omitempty"`
	Aliases  []string         `yaml:"aliases" json:"aliases,omitempty"`
}

// Schema is an immutable, validated metric set. Construct it with New.
type Schema struct {
	entries map[string]Entry
	names   []string
	aliases map[string]string
	hash    core.SchemaHash
}

// New validates entries and builds a Schema. Validation covers names,
// weight range, polarity, the weight sum and alias collisions; all of them
// are configuration errors.
func New(entries []Entry) (*Schema, error) {
	if len(entries) == 0 {
		return nil, errors.ConfigInvalid("metric schema has no entries")
	}

	s := &Schema{
		entries: make(map[string]Entry, len(entries)),
		aliases: make(map[string]string),
	}

	total := 0.0
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, errors.ConfigInvalid("metric schema entry has an empty name")
		}
		if _, dup := s.entries[name]; dup {
			return nil, errors.ConfigInvalidf("metric %q declared twice", name)
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight < 0 || e.Weight > 1 {
			return nil, errors.ConfigInvalidf("metric %q weight %v outside [0,1]", name, e.Weight)
		}
		if !e.Polarity.Valid() {
			return nil, errors.ConfigInvalidf("metric %q has invalid polarity %d", name, int(e.Polarity))
		}

		e.Name = name
		e.Aliases = append([]string(nil), e.Aliases...)
		s.entries[name] = e
		s.names = append(s.names, name)
		total += e.Weight
	}
	sort.Strings(s.names)

	if math.Abs(total-1.0) > WeightTolerance {
		return nil, errors.ConfigInvalidf("metric weights sum to %.6f, expected 1.0", total)
	}

	// Canonical names resolve to themselves; aliases may not shadow them.
	for _, name := range s.names {
		s.aliases[aliasKey(name)] = name
	}
	for _, name := range s.names {
		for _, alias := range s.entries[name].Aliases {
			key := aliasKey(alias)
			if key == "" {
				return nil, errors.ConfigInvalidf("metric %q has an empty alias", name)
			}
			if owner, taken := s.aliases[key]; taken && owner != name {
				return nil, errors.ConfigInvalidf("alias %q of %q collides with metric %q", alias, name, owner)
			}
			s.aliases[key] = name
		}
	}

	fields := make([]core.SchemaField, 0, len(s.names))
	for _, name := range s.names {
		e := s.entries[name]
		fields = append(fields, core.SchemaField{Name: name, Weight: e.Weight, Polarity: int(e.Polarity), Category: string(e.Category)})
	}
	s.hash = core.ComputeSchemaHash(fields)

	return s, nil
}

// aliasKey is the lookup form of a column label: trimmed and lower-cased.
// No further fuzzing is applied.
func aliasKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Entry returns the metadata for a canonical metric name.
func (s *Schema) Entry(name string) (Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// Has reports whether name is a canonical metric of the schema.
func (s *Schema) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Names returns the canonical metric names in sorted order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of metrics.
func (s *Schema) Len() int { return len(s.names) }

// Hash fingerprints the schema contents.
func (s *Schema) Hash() core.SchemaHash { return s.hash }

// Polarity returns the polarity for name.
func (s *Schema) Polarity(name string) (scoring.Polarity, bool) {
	e, ok := s.entries[name]
	return e.Polarity, ok
}

// BaseWeights returns a fresh copy of the configured weights.
func (s *Schema) BaseWeights() scoring.Weights {
	w := make(scoring.Weights, len(s.names))
	for _, name := range s.names {
		w[name] = s.entries[name].Weight
	}
	return w
}

// Resolve maps an input column label to its canonical metric name through
// the alias table.
func (s *Schema) Resolve(label string) (string, bool) {
	name, ok := s.aliases[aliasKey(label)]
	return name, ok
}

// ResolveColumns maps every header that names a metric to its canonical
// name. It returns the mapping and the schema metrics no header resolved to.
// Two headers resolving to the same metric is a configuration error.
func (s *Schema) ResolveColumns(headers []string) (map[string]string, []string, error) {
	mapping := make(map[string]string)
	claimed := make(map[string]string)
	for _, h := range headers {
		name, ok := s.Resolve(h)
		if !ok {
			continue
		}
		if prev, dup := claimed[name]; dup {
			return nil, nil, errors.ConfigInvalidf("columns %q and %q both resolve to metric %q", prev, h, name)
		}
		claimed[name] = h
		mapping[h] = name
	}

	var missing []string
	for _, name := range s.names {
		if _, ok := claimed[name]; !ok {
			missing = append(missing, name)
		}
	}
	return mapping, missing, nil
}

// Entries returns all entries in canonical name order.
func (s *Schema) Entries() []Entry {
	out := make([]Entry, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.entries[name])
	}
	return out
}
