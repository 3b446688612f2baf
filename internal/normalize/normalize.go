package normalize

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

// Normalizer is a single step applied to an extracted record before prediction.
type Normalizer interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, deps Deps, r features.Record) (features.Record, Step, error)
}

// Deps aggregates dependencies shared across all steps.
type Deps struct {
	Logger   *zap.Logger
	Defaults features.Record
}

// Step describes the result of executing a normalisation step.
type Step struct {
	Initial int
	Changed int
	Fields  []string
}

// Status represents runtime information about a step.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
}

// Default returns the standard pipeline. The fill step is only enabled when
// missing keys should be replaced with defaults.
func Default(fill bool) []Normalizer {
	steps := []Normalizer{NewTrim(), NewCoerce(), NewClamp(), NewFill()}
	if !fill {
		DisableByName(steps, "fill", "fallback disabled")
	}
	return steps
}

// DisableByName marks a step with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Normalizer, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run applies the enabled steps in order to a copy of r.
func Run(ctx context.Context, deps Deps, steps []Normalizer, r features.Record) (features.Record, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Defaults == nil {
		deps.Defaults = features.Defaults()
	}

	r = r.Clone()
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}

		next, info, err := step.Apply(ctx, deps, r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if info.Changed > 0 {
			deps.Logger.Debug("normalize step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("changed", info.Changed),
				zap.Strings("fields", info.Fields),
			)
		}
		r = next
	}

	return r, nil
}

// Describe returns status entries for the provided steps.
func Describe(steps []Normalizer) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		s := Status{Name: step.Name(), Enabled: step.IsEnabled()}
		if r, ok := step.(interface{ DisabledReason() string }); ok {
			s.Reason = r.DisabledReason()
		}
		statuses = append(statuses, s)
	}
	return statuses
}

// toggle carries the enable state shared by every step.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) DisabledReason() string { return t.reason }
