package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/toolbelt/plumbing-estimator/internal/logger"
)

type stubGenerator struct {
	response    string
	err         error
	lastSystem  string
	lastMessage string
	calls       int
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, message string) (string, error) {
	s.calls++
	s.lastSystem = system
	s.lastMessage = message
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func TestExtractorExtract(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	stub := &stubGenerator{response: "```json\n" + defaultsJSON(t) + "\n```"}
	extractor := NewExtractor("stub", stub, zap.New(core), 0)

	got, err := extractor.Extract(context.Background(), "  Budget bathroom: 1 toilet, 1 shower  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Provider != "stub" {
		t.Fatalf("unexpected provider: %q", got.Provider)
	}
	if got.Fallback {
		t.Fatalf("did not expect fallback")
	}
	if len(got.Record) != 17 {
		t.Fatalf("expected 17 keys, got %d", len(got.Record))
	}

	if stub.lastMessage != "Budget bathroom: 1 toilet, 1 shower" {
		t.Fatalf("description should be trimmed before sending, got %q", stub.lastMessage)
	}
	if stub.lastSystem != SystemPrompt() {
		t.Fatalf("expected the extraction prompt as system instruction")
	}

	entries := observed.FilterMessage("extraction request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx[logger.FieldProvider] != "stub" || ctx[logger.FieldModel] != "stub-model" {
		t.Fatalf("expected provider and model fields, got %v", ctx)
	}
}

func TestExtractorEmptyDescription(t *testing.T) {
	stub := &stubGenerator{}
	extractor := NewExtractor("stub", stub, zap.NewNop(), 0)

	_, err := extractor.Extract(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("provider must not be called for empty input")
	}
}

func TestExtractorErrors(t *testing.T) {
	tests := []struct {
		name     string
		stub     *stubGenerator
		expected error
	}{
		{
			name:     "provider failure",
			stub:     &stubGenerator{err: errors.New("connection reset")},
			expected: ErrUpstreamFailure,
		},
		{
			name:     "not json",
			stub:     &stubGenerator{response: "Sorry, I cannot help with that."},
			expected: ErrUpstreamFailure,
		},
		{
			name:     "missing keys",
			stub:     &stubGenerator{response: `{"boilerSize": "big", "toilet": 2}`},
			expected: ErrExtractionIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewExtractor("stub", tt.stub, zap.NewNop(), 10)
			_, err := extractor.Extract(context.Background(), "two toilets")
			if !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestExtractorUpstreamErrorNamesProvider(t *testing.T) {
	extractor := NewExtractor("gemini", &stubGenerator{err: errors.New("quota")}, nil, 0)

	_, err := extractor.Extract(context.Background(), "two toilets")
	if err == nil || !strings.HasPrefix(err.Error(), "gemini call failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}
