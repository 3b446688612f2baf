package normalize

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

type trimStep struct{ toggle }

// NewTrim creates a step that trims string values and restores the catalog
// spelling of category values that differ only in case.
func NewTrim() Normalizer { return &trimStep{} }

func (s *trimStep) Name() string { return "trim" }

func (s *trimStep) Apply(_ context.Context, _ Deps, r features.Record) (features.Record, Step, error) {
	info := Step{Initial: len(r)}
	for key, value := range r {
		str, ok := value.(string)
		if !ok {
			continue
		}

		next := strings.TrimSpace(str)
		if field, known := features.Lookup(key); known && field.Kind == features.KindCategory {
			next = canonical(field, next)
		}
		if next != str {
			r[key] = next
			info.Changed++
			info.Fields = append(info.Fields, key)
		}
	}
	sort.Strings(info.Fields)
	return r, info, nil
}

func canonical(field features.Field, value string) string {
	for _, v := range field.Values {
		if strings.EqualFold(v, value) {
			return v
		}
	}
	return value
}

type coerceStep struct{ toggle }

// NewCoerce creates a step that turns numeric strings, floats and json.Number
// count values into ints. Values that are not numbers are left for the encoder to reject.
func NewCoerce() Normalizer { return &coerceStep{} }

func (s *coerceStep) Name() string { return "coerce" }

func (s *coerceStep) Apply(_ context.Context, deps Deps, r features.Record) (features.Record, Step, error) {
	info := Step{Initial: len(r)}
	for _, field := range features.Catalog() {
		if field.Kind != features.KindCount {
			continue
		}
		value, ok := r[field.Name]
		if !ok {
			continue
		}
		if _, isInt := value.(int); isInt {
			continue
		}

		n, err := features.Int(value)
		if err != nil {
			deps.Logger.Debug("count value is not numeric",
				zap.String("field", field.Name),
				zap.Any("value", value),
			)
			continue
		}
		r[field.Name] = n
		info.Changed++
		info.Fields = append(info.Fields, field.Name)
	}
	return r, info, nil
}

type clampStep struct{ toggle }

// NewClamp creates a step that pulls counts back into the catalog range.
func NewClamp() Normalizer { return &clampStep{} }

func (s *clampStep) Name() string { return "clamp" }

func (s *clampStep) Apply(_ context.Context, deps Deps, r features.Record) (features.Record, Step, error) {
	info := Step{Initial: len(r)}
	for _, field := range features.Catalog() {
		if field.Kind != features.KindCount {
			continue
		}
		n, ok := r[field.Name].(int)
		if !ok {
			continue
		}

		clamped := min(max(n, field.Min), field.Max)
		if clamped == n {
			continue
		}
		deps.Logger.Warn("count out of range, clamping",
			zap.String("field", field.Name),
			zap.Int("value", n),
			zap.Int("min", field.Min),
			zap.Int("max", field.Max),
		)
		r[field.Name] = clamped
		info.Changed++
		info.Fields = append(info.Fields, field.Name)
	}
	return r, info, nil
}

type fillStep struct{ toggle }

// NewFill creates a step that adds missing keys from the defaults.
func NewFill() Normalizer { return &fillStep{} }

func (s *fillStep) Name() string { return "fill" }

func (s *fillStep) Apply(_ context.Context, deps Deps, r features.Record) (features.Record, Step, error) {
	info := Step{Initial: len(r)}
	for _, key := range features.MissingKeys(r) {
		def, ok := deps.Defaults[key]
		if !ok {
			continue
		}
		r[key] = def
		info.Changed++
		info.Fields = append(info.Fields, key)
	}
	return r, info, nil
}
