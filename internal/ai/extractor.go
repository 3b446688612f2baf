package ai

import (
	"context"
	"errors"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/logger"
	"github.com/toolbelt/plumbing-estimator/internal/util"
)

const defaultMaxLogLength = 200

// Generator is a language model client that answers a single message under a
// system instruction with a JSON document.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// LLMExtractor extracts job features by prompting a Generator.
type LLMExtractor struct {
	provider  string
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

// NewExtractor builds an extractor for the named provider.
func NewExtractor(provider string, generator Generator, log *zap.Logger, maxLogLength int) *LLMExtractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &LLMExtractor{
		provider:  provider,
		generator: generator,
		logger:    logger.WithProvider(log, provider, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (e *LLMExtractor) Extract(ctx context.Context, description string) (*Extraction, error) {
	description, err := CheckDescription(description)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("extraction request",
		zap.Int("description_length", utf8.RuneCountInString(description)),
		zap.String("description_preview", util.Preview(description, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, SystemPrompt(), description)
	if err != nil {
		return nil, &UpstreamError{Provider: e.provider, Err: err}
	}

	e.logger.Debug("extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.Preview(raw, e.maxLogLen)),
	)

	record, err := ParseRecord(raw)
	if err != nil {
		if errors.Is(err, ErrExtractionIncomplete) {
			return nil, err
		}
		return nil, &UpstreamError{Provider: e.provider, Err: err}
	}

	return &Extraction{Record: record, Provider: e.provider}, nil
}
