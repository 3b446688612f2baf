package model

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SchemaVersion is the only feature schema layout this build understands.
const SchemaVersion = 1

// Schema is the training-time description of the feature vector a model expects.
// It is immutable once loaded.
type Schema struct {
	Version     int                       `json:"version" yaml:"version"`
	Features    []string                  `json:"feature_names" yaml:"feature_names"`
	Ordinal     map[string]map[string]int `json:"ordinal_mappings" yaml:"ordinal_mappings"`
	OneHot      []string                  `json:"one_hot_columns" yaml:"one_hot_columns"`
	Categorical []string                  `json:"categorical_columns" yaml:"categorical_columns"`
	Numerical   []string                  `json:"numerical_columns" yaml:"numerical_columns"`
	// Categories holds the training levels of each one-hot field, reference level first.
	Categories  map[string][]string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Fingerprint string              `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`

	index map[string]int
}

// Width is the length of every encoded vector.
func (s *Schema) Width() int { return len(s.Features) }

// Index returns the position of a column in the vector.
func (s *Schema) Index(column string) (int, bool) {
	i, ok := s.index[column]
	return i, ok
}

// OneHotColumn is the indicator column name for a field value.
func OneHotColumn(field, value string) string {
	return field + "_" + value
}

// ValidValues lists the keys of an ordinal mapping ordered by rank.
func (s *Schema) ValidValues(field string) []string {
	mapping := s.Ordinal[field]
	values := make([]string, 0, len(mapping))
	for v := range mapping {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		ri, rj := mapping[values[i]], mapping[values[j]]
		if ri != rj {
			return ri < rj
		}
		return values[i] < values[j]
	})
	return values
}

// IsOrdinal reports whether the field is rank-encoded.
func (s *Schema) IsOrdinal(field string) bool {
	_, ok := s.Ordinal[field]
	return ok
}

// ComputeFingerprint hashes the version and ordered column names.
func (s *Schema) ComputeFingerprint() string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(s.Version)))
	for _, f := range s.Features {
		h.Write([]byte{'\n'})
		h.Write([]byte(f))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ReferenceLevel returns the dropped level of a one-hot field when categories are known.
func (s *Schema) ReferenceLevel(field string) (string, bool) {
	levels := s.Categories[field]
	if len(levels) == 0 {
		return "", false
	}
	return levels[0], true
}

// KnownLevel reports whether value was a training level of a one-hot field.
// The second result is false when the schema carries no levels for the field.
func (s *Schema) KnownLevel(field, value string) (known bool, decidable bool) {
	levels, ok := s.Categories[field]
	if !ok || len(levels) == 0 {
		return false, false
	}
	for _, l := range levels {
		if l == value {
			return true, true
		}
	}
	return false, true
}

// Validate checks the schema for internal consistency and builds the column index.
func (s *Schema) Validate() error {
	if s.Version != SchemaVersion {
		return incompatible("schema version %d is not supported (want %d)", s.Version, SchemaVersion)
	}
	if len(s.Features) == 0 {
		return incompatible("feature list is empty")
	}

	index := make(map[string]int, len(s.Features))
	for i, f := range s.Features {
		if strings.TrimSpace(f) == "" {
			return incompatible("feature %d has an empty name", i)
		}
		if _, dup := index[f]; dup {
			return incompatible("duplicate feature %q", f)
		}
		index[f] = i
	}

	if s.Fingerprint != "" {
		if got := s.ComputeFingerprint(); got != s.Fingerprint {
			return incompatible("fingerprint mismatch: bundle says %s, columns hash to %s", s.Fingerprint, got)
		}
	}

	for _, f := range s.Numerical {
		if _, ok := index[f]; !ok {
			return incompatible("numerical column %q is not a feature", f)
		}
	}

	for field, mapping := range s.Ordinal {
		if _, ok := index[field]; !ok {
			return incompatible("ordinal column %q is not a feature", field)
		}
		if len(mapping) == 0 {
			return incompatible("ordinal mapping for %q is empty", field)
		}
	}

	for _, field := range s.OneHot {
		if s.IsOrdinal(field) {
			return incompatible("field %q is both ordinal and one-hot", field)
		}
		if _, ok := index[field]; ok {
			return incompatible("one-hot field %q collides with a raw column", field)
		}

		prefix := field + "_"
		found := false
		for _, f := range s.Features {
			if strings.HasPrefix(f, prefix) {
				found = true
				break
			}
		}
		if !found {
			return incompatible("one-hot field %q has no indicator columns", field)
		}

		levels, ok := s.Categories[field]
		if !ok {
			continue
		}
		if len(levels) < 2 {
			return incompatible("one-hot field %q needs at least two levels", field)
		}
		if _, ok := index[OneHotColumn(field, levels[0])]; ok {
			return incompatible("reference level %q of %q must not have a column", levels[0], field)
		}
		for _, level := range levels[1:] {
			if _, ok := index[OneHotColumn(field, level)]; !ok {
				return incompatible("level %q of %q has no column", level, field)
			}
		}
	}

	s.index = index
	return nil
}

// RawFields lists every input field the schema consumes, numerical first.
func (s *Schema) RawFields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]string{s.Numerical, s.Categorical, s.OneHot} {
		for _, f := range group {
			if seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}

	ordinal := make([]string, 0, len(s.Ordinal))
	for f := range s.Ordinal {
		if !seen[f] {
			ordinal = append(ordinal, f)
		}
	}
	sort.Strings(ordinal)
	return append(out, ordinal...)
}
