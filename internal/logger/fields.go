package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across packages.
const (
	FieldProvider   = "ai_provider"
	FieldModel      = "ai_model"
	FieldRequestID  = "request_id"
	FieldEstimateID = "estimate_id"
)

// Fields turns key/value pairs into zap string fields. Keys and values are
// trimmed and pairs with an empty side are skipped, as is a trailing odd key.
func Fields(pairs ...string) []zap.Field {
	result := make([]zap.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, value := strings.TrimSpace(pairs[i]), strings.TrimSpace(pairs[i+1])
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// With attaches fields to logger. A nil logger becomes a no-op logger.
func With(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// WithProvider tags logger with the language model behind an extraction.
func WithProvider(logger *zap.Logger, provider, model string) *zap.Logger {
	return With(logger, Fields(FieldProvider, provider, FieldModel, model)...)
}

// WithRequest tags logger with an HTTP request id.
func WithRequest(logger *zap.Logger, requestID string) *zap.Logger {
	return With(logger, Fields(FieldRequestID, requestID)...)
}

// WithEstimate tags logger with a stored estimate id.
func WithEstimate(logger *zap.Logger, estimateID string) *zap.Logger {
	return With(logger, Fields(FieldEstimateID, estimateID)...)
}
