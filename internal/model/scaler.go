package model

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// StandardScaler holds the per-column mean and scale fitted at training time.
type StandardScaler struct {
	Mean  []float64 `json:"mean" yaml:"mean"`
	Scale []float64 `json:"scale" yaml:"scale"`
}

func (s *StandardScaler) validate(width int) error {
	if s == nil {
		return incompatible("time scaler is missing")
	}
	if len(s.Mean) != width || len(s.Scale) != width {
		return incompatible("scaler has %d means and %d scales for %d features", len(s.Mean), len(s.Scale), width)
	}
	return nil
}

// Transform returns (x - mean) / scale as a new slice. Zero scales are treated as 1.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.Mean), len(x))
	}

	out := make([]float64, len(x))
	floats.SubTo(out, x, s.Mean)
	for i, sc := range s.Scale {
		if sc != 0 {
			out[i] /= sc
		}
	}
	return out, nil
}
