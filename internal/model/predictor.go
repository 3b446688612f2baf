package model

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/features"
	"github.com/toolbelt/plumbing-estimator/internal/money"
)

// Prediction is the estimate for one job.
type Prediction struct {
	Cost          float64 `json:"cost"`
	Time          float64 `json:"time"`
	CostFormatted string  `json:"cost_formatted"`
	TimeFormatted string  `json:"time_formatted"`
}

// BatchResult is the outcome of one record in a batch.
type BatchResult struct {
	Index      int         `json:"index"`
	Prediction *Prediction `json:"prediction,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Predictor applies the cost and time regressors of a bundle. It is read-only
// after construction and safe for concurrent use.
type Predictor struct {
	bundle  *Bundle
	encoder *Encoder
	cost    Regressor
	time    Regressor
	logger  *zap.Logger
}

// NewPredictor compiles the regressors of a validated bundle.
func NewPredictor(bundle *Bundle, opts Options, logger *zap.Logger) (*Predictor, error) {
	if bundle == nil {
		return nil, fmt.Errorf("%w: bundle is nil", ErrMissingArtifact)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cost, err := NewRegressor(bundle.CostModel, &bundle.Schema)
	if err != nil {
		return nil, fmt.Errorf("cost model: %w", err)
	}
	time, err := NewRegressor(bundle.TimeModel, &bundle.Schema)
	if err != nil {
		return nil, fmt.Errorf("time model: %w", err)
	}

	p := &Predictor{
		bundle:  bundle,
		encoder: NewEncoder(&bundle.Schema, opts, logger),
		cost:    cost,
		time:    time,
		logger:  logger,
	}

	logger.Info("loaded model bundle",
		zap.String("version", bundle.Version),
		zap.Int("features", bundle.Schema.Width()),
		zap.String("cost_model", cost.Kind()),
		zap.String("time_model", time.Kind()),
	)

	return p, nil
}

// LoadPredictor reads a bundle from disk and builds a predictor from it.
func LoadPredictor(path string, opts Options, logger *zap.Logger) (*Predictor, error) {
	bundle, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewPredictor(bundle, opts, logger)
}

// Schema returns the feature schema of the loaded bundle.
func (p *Predictor) Schema() *Schema { return &p.bundle.Schema }

// Version returns the bundle version.
func (p *Predictor) Version() string { return p.bundle.Version }

// Encode exposes the aligned feature vector for a record.
func (p *Predictor) Encode(record features.Record) ([]float64, error) {
	return p.encoder.Encode(record)
}

// Predict estimates cost (currency units) and time (days) for a record.
func (p *Predictor) Predict(record features.Record) (*Prediction, error) {
	x, err := p.encoder.Encode(record)
	if err != nil {
		return nil, err
	}

	rawCost, err := p.cost.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("predict cost: %w", err)
	}
	cost := rawCost
	if p.bundle.Transforms.CostTarget == TargetLog1p {
		cost = math.Expm1(rawCost)
	}

	scaled, err := p.bundle.TimeScaler.Transform(x)
	if err != nil {
		return nil, fmt.Errorf("scale time features: %w", err)
	}
	days, err := p.time.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("predict time: %w", err)
	}

	cost = p.nonNegative("cost", cost)
	days = p.nonNegative("time", days)

	return &Prediction{
		Cost:          cost,
		Time:          days,
		CostFormatted: money.Format("$", cost),
		TimeFormatted: money.FormatDays(days),
	}, nil
}

// PredictBatch predicts every record independently; a failing record is reported
// in its result and does not stop the batch.
func (p *Predictor) PredictBatch(records []features.Record) []BatchResult {
	results := make([]BatchResult, 0, len(records))
	for i, r := range records {
		pred, err := p.Predict(r)
		if err != nil {
			results = append(results, BatchResult{Index: i, Error: err.Error()})
			continue
		}
		results = append(results, BatchResult{Index: i, Prediction: pred})
	}
	return results
}

func (p *Predictor) nonNegative(target string, v float64) float64 {
	if v >= 0 && !math.IsNaN(v) {
		return v
	}
	p.logger.Warn("clamping prediction to zero",
		zap.String("target", target),
		zap.Float64("raw", v),
	)
	return 0
}
