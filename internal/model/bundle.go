package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// TargetLog1p marks a target trained as log(1+y).
	TargetLog1p = "log1p"
	// TargetNone marks an untransformed target.
	TargetNone = "none"
)

// Transforms records how targets were transformed at training time.
type Transforms struct {
	CostTarget string `json:"cost_target" yaml:"cost_target"`
	TimeTarget string `json:"time_target" yaml:"time_target"`
}

// Bundle is the single serialized artifact produced by training: both regressors,
// the time scaler and the feature schema they were fitted against.
type Bundle struct {
	Version    string          `json:"version" yaml:"version"`
	Schema     Schema          `json:"schema" yaml:"schema"`
	CostModel  RegressorSpec   `json:"cost_model" yaml:"cost_model"`
	TimeModel  RegressorSpec   `json:"time_model" yaml:"time_model"`
	TimeScaler *StandardScaler `json:"scaler_time" yaml:"scaler_time"`
	Transforms Transforms      `json:"transformations" yaml:"transformations"`
}

// Load reads a bundle from a .json, .yaml or .yml file and validates it.
func Load(path string) (*Bundle, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: no path configured", ErrMissingArtifact)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return nil, fmt.Errorf("reading model bundle: %w", err)
	}

	bundle, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return bundle, nil
}

// Parse decodes a bundle in the format implied by ext and validates it.
func Parse(data []byte, ext string) (*Bundle, error) {
	var b Bundle
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("parsing model bundle: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("parsing model bundle: %w", err)
		}
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate runs the load-time compatibility check between schema, scaler and regressors.
func (b *Bundle) Validate() error {
	if err := b.Schema.Validate(); err != nil {
		return err
	}
	if err := b.TimeScaler.validate(b.Schema.Width()); err != nil {
		return err
	}

	switch b.Transforms.CostTarget {
	case "":
		b.Transforms.CostTarget = TargetLog1p
	case TargetLog1p, TargetNone:
	default:
		return incompatible("unsupported cost target transform %q", b.Transforms.CostTarget)
	}

	switch b.Transforms.TimeTarget {
	case "":
		b.Transforms.TimeTarget = TargetNone
	case TargetNone:
	default:
		return incompatible("unsupported time target transform %q", b.Transforms.TimeTarget)
	}

	if _, err := NewRegressor(b.CostModel, &b.Schema); err != nil {
		return fmt.Errorf("cost model: %w", err)
	}
	if _, err := NewRegressor(b.TimeModel, &b.Schema); err != nil {
		return fmt.Errorf("time model: %w", err)
	}
	return nil
}
