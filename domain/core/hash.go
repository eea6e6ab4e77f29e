package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Domain-specific hash types
type (
	SchemaHash  Hash
	DatasetHash Hash
)

func (h SchemaHash) String() string  { return Hash(h).String() }
func (h DatasetHash) String() string { return Hash(h).String() }

func (h SchemaHash) IsEmpty() bool  { return Hash(h).IsEmpty() }
func (h DatasetHash) IsEmpty() bool { return Hash(h).IsEmpty() }

// SchemaField is the hashable projection of one metric schema entry.
type SchemaField struct {
	Name     string
	Weight   float64
	Polarity int
	Category string
}

// ComputeSchemaHash fingerprints a metric schema independent of entry order.
func ComputeSchemaHash(fields []SchemaField) SchemaHash {
	sorted := make([]SchemaField, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var data strings.Builder
	for _, f := range sorted {
		fmt.Fprintf(&data, "%s|%x|%d|%s;", f.Name, math.Float64bits(f.Weight), f.Polarity, f.Category)
	}
	return SchemaHash(NewHash([]byte(data.String())))
}

// DatasetRow is the hashable projection of one metric record.
type DatasetRow struct {
	Model      string
	Threshold  float64
	QuestionID int
	Values     map[string]float64
}

// ComputeDatasetHash fingerprints the exact rows a run scored. Row order is
// significant because paired comparisons depend on it.
func ComputeDatasetHash(rows []DatasetRow) DatasetHash {
	var data strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&data, "%s|%x|%d", r.Model, math.Float64bits(r.Threshold), r.QuestionID)

		keys := make([]string, 0, len(r.Values))
		for k := range r.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&data, "|%s=%x", k, math.Float64bits(r.Values[k]))
		}
		data.WriteByte('\n')
	}
	return DatasetHash(NewHash([]byte(data.String())))
}
