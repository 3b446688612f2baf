// Package estimate turns job descriptions into priced estimates: it chains
// feature extraction, record normalisation, model prediction, currency
// conversion and the estimate history.
package estimate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/ai"
	"github.com/toolbelt/plumbing-estimator/internal/features"
	"github.com/toolbelt/plumbing-estimator/internal/history"
	"github.com/toolbelt/plumbing-estimator/internal/logger"
	"github.com/toolbelt/plumbing-estimator/internal/model"
	"github.com/toolbelt/plumbing-estimator/internal/money"
	"github.com/toolbelt/plumbing-estimator/internal/normalize"
)

// DefaultTimeDivisor converts the raw duration model output into reported days.
const DefaultTimeDivisor = 15

// Predictor estimates cost and time for a record.
type Predictor interface {
	Predict(record features.Record) (*model.Prediction, error)
}

// Recorder stores finished estimates.
type Recorder interface {
	Save(ctx context.Context, e *history.Entry) error
}

// Options configure a Service.
type Options struct {
	// Rate converts model cost (DZD) into GBP.
	Rate float64
	// TimeDivisor scales the duration prediction into reported days.
	TimeDivisor float64
	// Defaults back the fill normalisation step. Catalog defaults when nil.
	Defaults features.Record
	// Steps is the normalisation pipeline. normalize.Default(true) when nil.
	Steps []normalize.Normalizer
}

// Result is a priced estimate for one description.
type Result struct {
	Success        bool            `json:"success"`
	ID             string          `json:"id,omitempty"`
	JobDescription string          `json:"job_description"`
	CostDZD        float64         `json:"cost_dzd"`
	CostGBP        float64         `json:"cost_gbp"`
	TimeDays       int             `json:"time_days"`
	Features       features.Record `json:"features"`
	Fallback       bool            `json:"fallback"`
	FallbackReason string          `json:"fallback_reason,omitempty"`

	Prediction *model.Prediction `json:"-"`
}

// Service runs the estimate pipeline. It is safe for concurrent use as long as
// its collaborators are.
type Service struct {
	extractor ai.Extractor
	predictor Predictor
	recorder  Recorder
	steps     []normalize.Normalizer
	deps      normalize.Deps
	rate      float64
	divisor   float64
	logger    *zap.Logger
}

// NewService wires a Service. recorder may be nil to disable history.
func NewService(extractor ai.Extractor, predictor Predictor, recorder Recorder, opts Options, logger *zap.Logger) (*Service, error) {
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Rate <= 0 {
		opts.Rate = money.DefaultDZDToGBP
	}
	if opts.TimeDivisor <= 0 {
		opts.TimeDivisor = DefaultTimeDivisor
	}
	if opts.Defaults == nil {
		opts.Defaults = features.Defaults()
	}
	if opts.Steps == nil {
		opts.Steps = normalize.Default(true)
	}

	return &Service{
		extractor: extractor,
		predictor: predictor,
		recorder:  recorder,
		steps:     opts.Steps,
		deps:      normalize.Deps{Logger: logger, Defaults: opts.Defaults},
		rate:      opts.Rate,
		divisor:   opts.TimeDivisor,
		logger:    logger,
	}, nil
}

// Extract runs extraction and normalisation without predicting.
func (s *Service) Extract(ctx context.Context, description string) (*ai.Extraction, error) {
	extraction, err := s.extractor.Extract(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}

	record, err := normalize.Run(ctx, s.deps, s.steps, extraction.Record)
	if err != nil {
		return nil, err
	}
	extraction.Record = record

	return extraction, nil
}

// Estimate extracts features from description, predicts cost and time and
// records the result when a history store is configured.
func (s *Service) Estimate(ctx context.Context, description string) (*Result, error) {
	description, err := ai.CheckDescription(description)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	extraction, err := s.Extract(ctx, description)
	if err != nil {
		return nil, err
	}

	prediction, err := s.predictor.Predict(extraction.Record)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	result := &Result{
		Success:        true,
		JobDescription: description,
		CostDZD:        money.Round(prediction.Cost, 2),
		CostGBP:        money.Round(money.Convert(prediction.Cost, s.rate), 2),
		TimeDays:       s.Days(prediction.Time),
		Features:       extraction.Record,
		Fallback:       extraction.Fallback,
		FallbackReason: extraction.Reason,
		Prediction:     prediction,
	}

	s.record(ctx, result)

	logger.WithEstimate(s.logger, result.ID).Info("estimate ready",
		zap.Float64("cost_dzd", result.CostDZD),
		zap.Int("time_days", result.TimeDays),
		zap.Bool("fallback", result.Fallback),
		zap.Duration("took", time.Since(started)),
	)

	return result, nil
}

// Days converts a raw duration prediction into whole reported days.
func (s *Service) Days(raw float64) int {
	return int(math.Round(raw / s.divisor))
}

func (s *Service) record(ctx context.Context, result *Result) {
	if s.recorder == nil {
		return
	}

	entry := &history.Entry{
		Description: result.JobDescription,
		Features:    result.Features,
		CostDZD:     result.CostDZD,
		CostGBP:     result.CostGBP,
		TimeDays:    result.TimeDays,
		Fallback:    result.Fallback,
	}
	if err := s.recorder.Save(ctx, entry); err != nil {
		s.logger.Warn("failed to record estimate", zap.Error(err))
		return
	}
	result.ID = entry.ID
}

// IsInputError reports whether err was caused by the caller's description or record.
func IsInputError(err error) bool {
	return errors.Is(err, ai.ErrEmptyDescription) || model.IsInputError(err)
}

// IsUpstreamError reports whether err comes from a failed or incomplete extraction.
func IsUpstreamError(err error) bool {
	return errors.Is(err, ai.ErrUpstreamFailure) ||
		errors.Is(err, ai.ErrExtractionIncomplete) ||
		errors.Is(err, context.DeadlineExceeded)
}
