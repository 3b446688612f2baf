package model

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadFixture(t *testing.T) {
	b := loadFixture(t)

	assert.Equal(t, "1.0.0", b.Version)
	assert.Equal(t, SchemaVersion, b.Schema.Version)
	assert.Equal(t, 27, b.Schema.Width())
	assert.Equal(t, b.Schema.ComputeFingerprint(), b.Schema.Fingerprint)
	assert.Equal(t, TargetLog1p, b.Transforms.CostTarget)
	assert.Equal(t, TargetNone, b.Transforms.TimeTarget)

	ref, ok := b.Schema.ReferenceLevel("bathhubType")
	require.True(t, ok)
	assert.Equal(t, "Luxury", ref)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingArtifact))

	_, err = Load("  ")
	assert.True(t, errors.Is(err, ErrMissingArtifact))
}

func TestLoadYAMLBundle(t *testing.T) {
	data, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	out, err := yaml.Marshal(generic)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bundle.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o600))

	fromYAML, err := Load(path)
	require.NoError(t, err)
	fromJSON := loadFixture(t)

	assert.Equal(t, fromJSON.Schema.Features, fromYAML.Schema.Features)

	p, err := NewPredictor(fromYAML, Options{}, nil)
	require.NoError(t, err)
	pred, err := p.Predict(scenarioRecord())
	require.NoError(t, err)
	assert.InDelta(t, 396328.02, pred.Cost, 0.01)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("{not json"), ".json")
	assert.Error(t, err)
}

func TestBundleValidateIncompatible(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Bundle)
	}{
		{
			name:   "fingerprint mismatch",
			mutate: func(b *Bundle) { b.Schema.Fingerprint = "deadbeef" },
		},
		{
			name:   "unsupported schema version",
			mutate: func(b *Bundle) { b.Schema.Version = 2 },
		},
		{
			name: "duplicate feature",
			mutate: func(b *Bundle) {
				b.Schema.Features[1] = b.Schema.Features[0]
				b.Schema.Fingerprint = ""
			},
		},
		{
			name: "scaler width",
			mutate: func(b *Bundle) {
				b.TimeScaler.Mean = b.TimeScaler.Mean[:3]
			},
		},
		{
			name:   "missing scaler",
			mutate: func(b *Bundle) { b.TimeScaler = nil },
		},
		{
			name: "coefficient count",
			mutate: func(b *Bundle) {
				b.TimeModel.Coefficients = append(b.TimeModel.Coefficients, 1)
			},
		},
		{
			name: "tree splits on unknown feature",
			mutate: func(b *Bundle) {
				b.CostModel.Trees[0].Nodes[0].Feature = "garage"
			},
		},
		{
			name: "reference level with a column",
			mutate: func(b *Bundle) {
				b.Schema.Categories["bathhubType"] = []string{"Standard", "Luxury"}
			},
		},
		{
			name:   "unsupported cost transform",
			mutate: func(b *Bundle) { b.Transforms.CostTarget = "sqrt" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := loadFixture(t)
			tt.mutate(b)

			err := b.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIncompatibleSchema), "got %v", err)
		})
	}
}

func TestBundleValidateBrokenTrees(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Bundle)
	}{
		{
			name:   "no trees",
			mutate: func(b *Bundle) { b.CostModel.Trees = nil },
		},
		{
			name: "child points backwards",
			mutate: func(b *Bundle) {
				b.CostModel.Trees[0].Nodes[0].No = 0
			},
		},
		{
			name:   "unknown kind",
			mutate: func(b *Bundle) { b.CostModel.Kind = "forest" },
		},
		{
			name:   "kind not set",
			mutate: func(b *Bundle) { b.TimeModel.Kind = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := loadFixture(t)
			tt.mutate(b)
			assert.Error(t, b.Validate())
		})
	}
}

func TestSchemaValidValuesRankOrder(t *testing.T) {
	b := loadFixture(t)
	assert.Equal(t, []string{"small", "medium", "big"}, b.Schema.ValidValues("boilerSize"))
	assert.Equal(t, []string{"poor", "high"}, b.Schema.ValidValues("sinkTypeQuality"))
}

func TestSchemaKnownLevel(t *testing.T) {
	b := loadFixture(t)

	known, decidable := b.Schema.KnownLevel("sinkCategorie", "double")
	assert.True(t, known)
	assert.True(t, decidable)

	known, decidable = b.Schema.KnownLevel("sinkCategorie", "triple")
	assert.False(t, known)
	assert.True(t, decidable)

	delete(b.Schema.Categories, "sinkCategorie")
	_, decidable = b.Schema.KnownLevel("sinkCategorie", "double")
	assert.False(t, decidable)
}
