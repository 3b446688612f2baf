package ai

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

// WithFallback degrades to the default job when the language model fails or
// leaves keys out. Keys it did return are kept. Empty descriptions and
// cancelled requests are still reported as errors.
func WithFallback(next Extractor, defaults features.Record, logger *zap.Logger) Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults == nil {
		defaults = features.Defaults()
	}

	return ExtractorFunc(func(ctx context.Context, description string) (*Extraction, error) {
		result, err := next.Extract(ctx, description)
		if err == nil {
			return result, nil
		}

		if errors.Is(err, ErrEmptyDescription) || errors.Is(err, context.Canceled) {
			return nil, err
		}

		var incomplete *ExtractionIncompleteError
		switch {
		case errors.As(err, &incomplete):
			logger.Warn("extraction incomplete, filling missing features with defaults",
				zap.Strings("missing", incomplete.Missing),
			)
			return &Extraction{
				Record:   incomplete.Partial.Merge(defaults),
				Fallback: true,
				Reason:   err.Error(),
			}, nil
		case errors.Is(err, ErrUpstreamFailure), errors.Is(err, context.DeadlineExceeded):
			logger.Warn("feature extraction failed, using defaults", zap.Error(err))
			return &Extraction{
				Record:   defaults.Clone(),
				Fallback: true,
				Reason:   err.Error(),
			}, nil
		default:
			return nil, err
		}
	})
}
