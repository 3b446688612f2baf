package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

func newFixturePredictor(t *testing.T, opts Options) *Predictor {
	t.Helper()
	p, err := LoadPredictor(fixturePath, opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p
}

func TestPredictScenario(t *testing.T) {
	p := newFixturePredictor(t, Options{})

	pred, err := p.Predict(scenarioRecord())
	require.NoError(t, err)

	assert.InEpsilon(t, math.Expm1(12.89), pred.Cost, 1e-9)
	assert.InDelta(t, 396328.02, pred.Cost, 0.01)
	assert.InDelta(t, 18.44, pred.Time, 1e-6)
	assert.GreaterOrEqual(t, pred.Cost, 0.0)
	assert.GreaterOrEqual(t, pred.Time, 0.0)
	assert.Equal(t, "18.4 days", pred.TimeFormatted)
	assert.Contains(t, pred.CostFormatted, "$")
}

func TestPredictSmallJob(t *testing.T) {
	p := newFixturePredictor(t, Options{})

	r := scenarioRecord()
	r["boilerSize"] = "small"
	r["radiator"] = 2
	r["toilet"] = 1
	r["sinkTypeQuality"] = "poor"
	r["bathhub"] = 0
	r["showerCabin"] = 0
	r["washbasin"] = 0
	r["waterHeater"] = 0

	pred, err := p.Predict(r)
	require.NoError(t, err)
	assert.InEpsilon(t, math.Expm1(11.8), pred.Cost, 1e-9)
	assert.InDelta(t, 6.067, pred.Time, 0.01)

	big, err := p.Predict(scenarioRecord())
	require.NoError(t, err)
	assert.Greater(t, big.Cost, pred.Cost)
	assert.Greater(t, big.Time, pred.Time)
}

func TestPredictIsDeterministic(t *testing.T) {
	p := newFixturePredictor(t, Options{})

	first, err := p.Predict(scenarioRecord())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Predict(scenarioRecord())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPredictMissingBidetSucceeds(t *testing.T) {
	p := newFixturePredictor(t, Options{})

	r := scenarioRecord()
	delete(r, "Bidet")
	delete(r, "BidetType")

	pred, err := p.Predict(r)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.Cost, 0.0)
}

func TestPredictClampsNegativeOutputs(t *testing.T) {
	b := loadFixture(t)
	b.TimeModel.Intercept = -1000

	core, observed := observer.New(zapcore.WarnLevel)
	p, err := NewPredictor(b, Options{}, zap.New(core))
	require.NoError(t, err)

	pred, err := p.Predict(scenarioRecord())
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.Time)
	assert.Greater(t, pred.Cost, 0.0)

	entries := observed.FilterMessage("clamping prediction to zero").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "time", entries[0].ContextMap()["target"])
}

func TestPredictUntransformedCost(t *testing.T) {
	b := loadFixture(t)
	b.Transforms.CostTarget = TargetNone

	p, err := NewPredictor(b, Options{}, zap.NewNop())
	require.NoError(t, err)

	pred, err := p.Predict(scenarioRecord())
	require.NoError(t, err)
	assert.InDelta(t, 12.89, pred.Cost, 1e-9)
}

func TestPredictBatch(t *testing.T) {
	p := newFixturePredictor(t, Options{})

	bad := scenarioRecord()
	bad["boilerSize"] = "huge"

	results := p.PredictBatch([]features.Record{scenarioRecord(), bad, {}})
	require.Len(t, results, 3)

	assert.Equal(t, 0, results[0].Index)
	require.NotNil(t, results[0].Prediction)
	assert.Empty(t, results[0].Error)

	assert.Equal(t, 1, results[1].Index)
	assert.Nil(t, results[1].Prediction)
	assert.Contains(t, results[1].Error, "boilerSize")

	assert.Equal(t, 2, results[2].Index)
	assert.NotNil(t, results[2].Prediction)
}

func TestLogTargetRoundTrip(t *testing.T) {
	values := []float64{0, 1e-9, 0.5, 1, 42, 1000, 123456.789, 1e6, 9999999.5, 1e7}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		values = append(values, rng.Float64()*1e7)
	}

	for _, y := range values {
		got := math.Expm1(math.Log1p(y))
		if y == 0 {
			assert.Equal(t, 0.0, got)
			continue
		}
		assert.InEpsilon(t, y, got, 1e-12, "y=%v", y)
	}
}
