package model

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

// MissingPolicy decides what an absent input field turns into.
type MissingPolicy string

const (
	// MissingDefaults fills absent fields with the documented catalog default
	// (for example radiator=5, Bidet=0). This is a business rule, not an encoding artifact.
	MissingDefaults MissingPolicy = "defaults"
	// MissingZero leaves absent fields out, so their columns encode as 0.
	MissingZero MissingPolicy = "zero"
)

// ParseMissingPolicy accepts "", "defaults" or "zero".
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MissingDefaults:
		return MissingDefaults, nil
	case MissingZero:
		return MissingZero, nil
	default:
		return "", fmt.Errorf("unknown missing field policy %q (want defaults or zero)", s)
	}
}

// Options tune the encoder.
type Options struct {
	MissingFields MissingPolicy
	// StrictCategories rejects one-hot values that were not training levels
	// instead of dropping them.
	StrictCategories bool
}

// Encoder turns raw records into vectors aligned to a schema. It holds no mutable state.
type Encoder struct {
	schema   *Schema
	opts     Options
	defaults features.Record
	logger   *zap.Logger
}

// NewEncoder builds an encoder for a validated schema.
func NewEncoder(schema *Schema, opts Options, logger *zap.Logger) *Encoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MissingFields == "" {
		opts.MissingFields = MissingDefaults
	}
	return &Encoder{
		schema:   schema,
		opts:     opts,
		defaults: features.Defaults(),
		logger:   logger,
	}
}

// Schema returns the schema the encoder aligns to.
func (e *Encoder) Schema() *Schema { return e.schema }

// Encode returns a vector of exactly Schema.Width() values in schema order.
func (e *Encoder) Encode(record features.Record) ([]float64, error) {
	record = e.fill(record)
	columns := make(map[string]float64, len(record))

	for _, field := range e.schema.Numerical {
		raw := record[field]
		if raw == nil {
			continue
		}
		v, err := features.Float(raw)
		if err != nil {
			return nil, &InvalidNumericValueError{Field: field, Value: raw, Err: err}
		}
		columns[field] = v
	}

	for _, field := range e.ordinalFields() {
		raw := record[field]
		if raw == nil {
			continue
		}
		value, _ := features.String(raw)
		rank, ok := e.schema.Ordinal[field][value]
		if !ok {
			return nil, &InvalidCategoryValueError{
				Field: field,
				Value: value,
				Valid: e.schema.ValidValues(field),
			}
		}
		columns[field] = float64(rank)
	}

	for _, field := range e.schema.OneHot {
		raw := record[field]
		if raw == nil {
			continue
		}
		value, err := features.String(raw)
		if err != nil {
			continue
		}
		column := OneHotColumn(field, value)
		if _, inSchema := e.schema.Index(column); inSchema {
			columns[column] = 1
			continue
		}
		if err := e.dropUnseen(field, value, column); err != nil {
			return nil, err
		}
	}

	vector := make([]float64, e.schema.Width())
	for i, name := range e.schema.Features {
		vector[i] = columns[name]
	}
	return vector, nil
}

// dropUnseen handles a one-hot value without a column: either the reference
// level, which legitimately encodes as all zeros, or a value unseen in training.
func (e *Encoder) dropUnseen(field, value, column string) error {
	known, decidable := e.schema.KnownLevel(field, value)
	if known {
		return nil
	}

	if decidable && e.opts.StrictCategories {
		return &UnknownColumnError{Field: field, Value: value, Column: column}
	}

	if decidable {
		e.logger.Warn("dropping value unseen in training",
			zap.String("field", field),
			zap.String("value", value),
			zap.String("column", column),
		)
	} else {
		e.logger.Debug("no column for one-hot value",
			zap.String("field", field),
			zap.String("value", value),
		)
	}
	return nil
}

// fill applies the missing field policy to the fields the schema consumes.
// Null values are treated as missing.
func (e *Encoder) fill(record features.Record) features.Record {
	if e.opts.MissingFields != MissingDefaults {
		return record
	}

	var filled features.Record
	for _, field := range e.schema.RawFields() {
		if record.Has(field) {
			continue
		}
		def, ok := e.defaults[field]
		if !ok {
			continue
		}
		if filled == nil {
			filled = record.Clone()
		}
		filled[field] = def
		e.logger.Debug("filling missing field with default",
			zap.String("field", field),
			zap.Any("default", def),
		)
	}

	if filled == nil {
		return record
	}
	return filled
}

// ordinalFields returns ordinal fields in schema column order so errors are reported deterministically.
func (e *Encoder) ordinalFields() []string {
	out := make([]string, 0, len(e.schema.Ordinal))
	for _, f := range e.schema.Features {
		if e.schema.IsOrdinal(f) {
			out = append(out, f)
		}
	}
	return out
}
